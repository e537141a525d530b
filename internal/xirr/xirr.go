// Package xirr computes the money-weighted annual return of dated cash flows.
package xirr

import (
	"math"
	"slices"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/model"
)

const (
	_guess     = 0.1
	_maxIter   = 50
	_npvTol    = 1e-5
	_stepTol   = 1e-6
	_yearDays  = 365.0
	_dayLength = 24 * time.Hour
)

// Solve returns the annualized rate in percent at which the net present value
// of flows is zero. Zero means the rate could not be determined.
func Solve(flows []model.CashFlow) float64 {
	if len(flows) == 0 || !hasBothSigns(flows) {
		return 0
	}

	base := slices.MinFunc(flows, func(a, b model.CashFlow) int { return a.Date.Compare(b.Date) }).Date
	years := make([]float64, len(flows))
	for i, f := range flows {
		years[i] = float64(f.Date.Sub(base)/_dayLength) / _yearDays
	}

	rate := _guess
	for range _maxIter {
		npv, dnpv := 0.0, 0.0
		for i, f := range flows {
			t := years[i]
			npv += f.Amount / math.Pow(1+rate, t)
			dnpv -= t * f.Amount / math.Pow(1+rate, t+1)
		}
		if !finite(npv) || !finite(dnpv) {
			return 0
		}
		if math.Abs(npv) < _npvTol {
			return rate * 100
		}
		if dnpv == 0 {
			return 0
		}

		next := rate - npv/dnpv
		if !finite(next) || next <= -1 {
			return 0
		}
		if math.Abs(next-rate) < _stepTol {
			return next * 100
		}
		rate = next
	}

	return 0
}

func hasBothSigns(flows []model.CashFlow) bool {
	var pos, neg bool
	for _, f := range flows {
		pos = pos || f.Amount > 0
		neg = neg || f.Amount < 0
	}
	return pos && neg
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
