package valuation

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/model"
)

var ErrUnknownKind = errors.New("unknown investment kind")

// Position is the result of replaying the lots of one instrument under the
// average cost method.
type Position struct {
	Units    float64
	Invested float64

	Realized      float64
	RealizedValue float64
	UnitsSold     float64

	BoughtUnits  float64
	BoughtAmount float64

	FirstBuy time.Time
	LastSell *time.Time
	LastTx   time.Time

	Flows []model.CashFlow
}

func (p Position) AverageCost() float64 {
	if p.Units <= 0 {
		return 0
	}
	return p.Invested / p.Units
}

func (p Position) AverageBuyPrice() float64 {
	if p.BoughtUnits <= 0 {
		return 0
	}
	return p.BoughtAmount / p.BoughtUnits
}

func (p Position) AverageSoldPrice() float64 {
	if p.UnitsSold <= 0 {
		return 0
	}
	return p.RealizedValue / p.UnitsSold
}

// SortLots orders lots by date, then by id.
func SortLots(lots []model.InvestmentLot) {
	slices.SortStableFunc(lots, func(a, b model.InvestmentLot) int {
		return cmp.Or(a.Date.Compare(b.Date), cmp.Compare(a.ID, b.ID))
	})
}

// FilterLots keeps the lots of the given kinds, or every lot when no kinds
// are given. Redemptions are always kept so a filtered view never reports
// units that were already sold.
func FilterLots(lots []model.InvestmentLot, kinds ...model.LotKind) []model.InvestmentLot {
	out := make([]model.InvestmentLot, 0, len(lots))
	for _, l := range lots {
		if len(kinds) == 0 || l.IsRedemption() || slices.Contains(kinds, l.Kind) {
			out = append(out, l)
		}
	}
	return out
}

// ParseKindFilter parses a purchase kind filter. Empty and "all" mean no
// filter.
func ParseKindFilter(s string) ([]model.LotKind, error) {
	switch k := model.LotKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case "", "ALL":
		return nil, nil
	case model.SIP, model.Lumpsum:
		return []model.LotKind{k}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Replay rebuilds a position from lots, filtered by kind as in FilterLots.
// Units and invested are clamped to zero once units drop to epsilon or below.
func Replay(lots []model.InvestmentLot, epsilon float64, kinds ...model.LotKind) Position {
	sorted := FilterLots(lots, kinds...)
	SortLots(sorted)

	var p Position
	for _, l := range sorted {
		amount := math.Abs(l.Amount)
		units := math.Abs(l.Units)
		p.LastTx = l.Date

		if l.IsRedemption() {
			cost := p.AverageCost() * units
			p.Realized += amount - cost
			p.RealizedValue += amount
			p.UnitsSold += units
			p.Invested -= cost
			p.Units -= units
			p.LastSell = &l.Date
			p.Flows = append(p.Flows, model.CashFlow{Date: l.Date, Amount: amount})
		} else {
			if p.BoughtUnits == 0 {
				p.FirstBuy = l.Date
			}
			p.Units += units
			p.Invested += amount
			p.BoughtUnits += units
			p.BoughtAmount += amount
			p.Flows = append(p.Flows, model.CashFlow{Date: l.Date, Amount: -amount})
		}

		if p.Units <= epsilon {
			p.Units = 0
			p.Invested = 0
		}
	}

	return p
}
