package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/stretchr/testify/assert"
)

const _eps = 1e-4

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func buyLot(id int64, date string, amount, price float64) model.InvestmentLot {
	return model.InvestmentLot{ID: id, Code: "100", Account: model.DefaultAccount, Kind: model.SIP, Amount: -amount, Units: amount / price, Price: price, Date: day(date)}
}

func sellLot(id int64, date string, units, price float64) model.InvestmentLot {
	return model.InvestmentLot{ID: id, Code: "100", Account: model.DefaultAccount, Kind: model.Redemption, Amount: units * price, Units: -units, Price: price, Date: day(date)}
}

func TestApplyLotMatchesReplay(t *testing.T) {
	lots := []model.InvestmentLot{
		buyLot(1, "2024-01-01", 1000, 10),
		buyLot(2, "2024-02-01", 1000, 8),
		sellLot(3, "2024-03-01", 60, 12),
		buyLot(4, "2024-04-01", 500, 11),
		sellLot(5, "2024-05-01", 40, 13),
	}

	h := model.AggregateHolding{Code: "100", Account: model.DefaultAccount}
	var units float64
	for _, l := range lots {
		h = applyLot(h, l, _eps)
		units += l.Units
	}

	rebuilt := fromLots("100", model.DefaultAccount, lots, _eps)
	assert.InDelta(t, rebuilt.Units, h.Units, 1e-9)
	assert.InDelta(t, rebuilt.Invested, h.Invested, 1e-9)
	assert.InDelta(t, rebuilt.AvgCost, h.AvgCost, 1e-9)
	assert.InDelta(t, units, h.Units, _eps)
}

func TestApplyLotClampsToZero(t *testing.T) {
	h := applyLot(model.AggregateHolding{}, buyLot(1, "2024-01-01", 1000, 3), _eps)
	h = applyLot(h, sellLot(2, "2024-02-01", h.Units-_eps/2, 4), _eps)

	assert.Zero(t, h.Units)
	assert.Zero(t, h.Invested)
	assert.Zero(t, h.AvgCost)
}

func TestHeldBefore(t *testing.T) {
	lots := []model.InvestmentLot{
		buyLot(1, "2024-01-01", 1000, 10),
		sellLot(2, "2024-03-01", 30, 12),
		buyLot(3, "2024-03-01", 500, 10),
		buyLot(4, "2024-06-01", 1000, 10),
	}

	assert.Zero(t, heldBefore(lots, lots[0], _eps))
	assert.InDelta(t, 100, heldBefore(lots, lots[1], _eps), 1e-9)
	assert.InDelta(t, 70, heldBefore(lots, lots[2], _eps), 1e-9)

	pending := sellLot(math.MaxInt64, "2024-03-01", 10, 12)
	assert.InDelta(t, 120, heldBefore(lots, pending, _eps), 1e-9)
}

func TestRecomputeRepairsDrift(t *testing.T) {
	lots := []model.InvestmentLot{
		buyLot(1, "2024-01-01", 1000, 10),
		sellLot(2, "2024-03-01", 30, 12),
	}
	drifted := model.AggregateHolding{Code: "100", Account: model.DefaultAccount, Units: 95, Invested: 950, AvgCost: 10}

	h := fromLots(drifted.Code, drifted.Account, lots, _eps)
	assert.InDelta(t, 70, h.Units, 1e-9)
	assert.InDelta(t, 700, h.Invested, 1e-9)
	assert.InDelta(t, 10, h.AvgCost, 1e-9)
}
