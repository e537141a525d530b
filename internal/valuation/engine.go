package valuation

import (
	"math"
	"strings"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/config"
	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/STTM-NSU/fund-tracker/internal/tools"
	"github.com/STTM-NSU/fund-tracker/internal/xirr"
)

type Engine struct {
	cfg config.ValuationConfig
}

func NewEngine(cfg config.ValuationConfig) *Engine {
	cfg.Setup()
	return &Engine{cfg: cfg}
}

func (e *Engine) Epsilon() float64 {
	return e.cfg.ZeroEpsilon
}

// Value derives the valuation of one instrument from its lots, its live price
// and the trailing price history. Kinds restrict the purchases considered.
func (e *Engine) Value(
	inst model.Instrument,
	lots []model.InvestmentLot,
	history []model.PricePoint,
	asOf time.Time,
	kinds ...model.LotKind,
) model.HoldingValuation {
	lots = FilterLots(lots, kinds...)
	p := Replay(lots, e.cfg.ZeroEpsilon)

	v := model.HoldingValuation{
		Code:      inst.Code,
		Name:      inst.Name,
		Category:  inst.Category,
		FundHouse: inst.FundHouse,

		Units:        tools.Round(p.Units, 4),
		Invested:     tools.Round(p.Invested, 2),
		AverageCost:  tools.Round(p.AverageCost(), 4),
		CurrentPrice: inst.Price,
		PriceDate:    inst.PriceDate,

		RealizedPnL:   tools.Round(p.Realized, 2),
		RealizedValue: tools.Round(p.RealizedValue, 2),
		UnitsSold:     tools.Round(p.UnitsSold, 4),
		AvgBuyPrice:   tools.Round(p.AverageBuyPrice(), 4),
		AvgSoldPrice:  tools.Round(p.AverageSoldPrice(), 4),
		FirstInvested: p.FirstBuy,
		LastSold:      p.LastSell,
	}

	value := p.Units * inst.Price
	v.CurrentValue = tools.Round(value, 2)
	v.AbsReturn = tools.Round(value-p.Invested, 2)
	if p.Invested > 0 {
		v.ReturnPercent = tools.Round((value-p.Invested)/p.Invested*100, 2)
	}

	end := asOf
	if p.LastSell != nil {
		end = *p.LastSell
	}
	v.TaxStatus = e.Classify(inst.Category, p.FirstBuy, end)
	v.RedemptionDate = ProjectedRedemption(lots)

	priceDate := asOf
	if inst.PriceDate != nil {
		priceDate = *inst.PriceDate
	}
	flows := p.Flows
	if value > 0 {
		flows = append(flows[:len(flows):len(flows)], model.CashFlow{Date: priceDate, Amount: value})
	}
	v.XIRR = tools.Round(xirr.Solve(flows), 2)

	e.applyRange(&v, history, asOf)

	return v
}

// Classify returns the holding-period tax class of a position held from
// first to end.
func (e *Engine) Classify(category string, first, end time.Time) model.TaxStatus {
	if first.IsZero() {
		return model.ShortTerm
	}
	threshold := e.cfg.OtherLongTermDays
	if IsEquity(category) {
		threshold = e.cfg.EquityLongTermDays
	}
	if tools.DaysBetween(first, end) > threshold {
		return model.LongTerm
	}
	return model.ShortTerm
}

func IsEquity(category string) bool {
	c := strings.ToLower(category)
	return strings.Contains(c, "equity") || strings.Contains(c, "index")
}

// ProjectedRedemption returns the planned exit date of the most recent lot
// that declares a holding period.
func ProjectedRedemption(lots []model.InvestmentLot) *time.Time {
	var latest *model.InvestmentLot
	for i := range lots {
		l := &lots[i]
		if l.HoldingPeriod == nil || *l.HoldingPeriod <= 0 {
			continue
		}
		if latest == nil || l.Date.After(latest.Date) || (l.Date.Equal(latest.Date) && l.ID > latest.ID) {
			latest = l
		}
	}
	if latest == nil {
		return nil
	}
	d := tools.AddYears(latest.Date, *latest.HoldingPeriod)
	return &d
}

func (e *Engine) applyRange(v *model.HoldingValuation, history []model.PricePoint, asOf time.Time) {
	from := tools.Day(asOf).AddDate(0, 0, -e.cfg.Week52Days)

	high, low := math.Inf(-1), math.Inf(1)
	var highDate, lowDate time.Time
	for _, pp := range history {
		if pp.Date.Before(from) || pp.Price <= 0 {
			continue
		}
		if pp.Price > high {
			high, highDate = pp.Price, pp.Date
		}
		if pp.Price < low {
			low, lowDate = pp.Price, pp.Date
		}
	}

	live := v.CurrentPrice
	liveDate := asOf
	if v.PriceDate != nil {
		liveDate = *v.PriceDate
	}
	if live > 0 {
		if live > high {
			high, highDate = live, liveDate
		}
		if live < low {
			low, lowDate = live, liveDate
		}
	}

	if !math.IsInf(high, 0) {
		v.High52w, v.High52wDate = high, &highDate
	}
	if !math.IsInf(low, 0) {
		v.Low52w, v.Low52wDate = low, &lowDate
	}
}
