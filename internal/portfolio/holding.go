package portfolio

import (
	"math"

	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/STTM-NSU/fund-tracker/internal/valuation"
)

// applyLot adds the effect of lot to the running holding under average cost.
func applyLot(h model.AggregateHolding, lot model.InvestmentLot, eps float64) model.AggregateHolding {
	units := math.Abs(lot.Units)
	if lot.IsRedemption() {
		h.Invested -= averageCost(h) * units
		h.Units -= units
	} else {
		h.Invested += math.Abs(lot.Amount)
		h.Units += units
	}
	return settle(h, eps)
}

// heldBefore returns the units held just before lot in replay order.
func heldBefore(lots []model.InvestmentLot, lot model.InvestmentLot, eps float64) float64 {
	var prior []model.InvestmentLot
	for _, l := range lots {
		if l.ID == lot.ID {
			continue
		}
		if l.Date.Before(lot.Date) || (l.Date.Equal(lot.Date) && l.ID < lot.ID) {
			prior = append(prior, l)
		}
	}
	return valuation.Replay(prior, eps).Units
}

// fromLots rebuilds a holding by replaying its lots.
func fromLots(code, account string, lots []model.InvestmentLot, eps float64) model.AggregateHolding {
	p := valuation.Replay(lots, eps)
	return settle(model.AggregateHolding{
		Code:     code,
		Account:  account,
		Units:    p.Units,
		Invested: p.Invested,
	}, eps)
}

func averageCost(h model.AggregateHolding) float64 {
	if h.Units <= 0 {
		return 0
	}
	return h.Invested / h.Units
}

func settle(h model.AggregateHolding, eps float64) model.AggregateHolding {
	if h.Units <= eps {
		h.Units = 0
		h.Invested = 0
	}
	if h.Invested < 0 {
		h.Invested = 0
	}
	h.AvgCost = averageCost(h)
	return h
}
