package valuation

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/STTM-NSU/fund-tracker/internal/tools"
	"github.com/STTM-NSU/fund-tracker/internal/xirr"
)

// Summarize rolls instrument valuations up into a portfolio summary. flows
// are the cash flows of every lot; the terminal value is dated asOf.
func Summarize(vals []model.HoldingValuation, flows []model.CashFlow, asOf time.Time) *model.PortfolioSummary {
	s := &model.PortfolioSummary{
		Holdings: []model.HoldingValuation{},
		Closed:   []model.HoldingValuation{},
		AsOf:     asOf,
	}

	var invested, value, realized float64
	for _, v := range vals {
		realized += v.RealizedPnL
		if v.Units <= 0 {
			if v.UnitsSold > 0 {
				s.Closed = append(s.Closed, v)
			}
			continue
		}
		s.Holdings = append(s.Holdings, v)
		invested += v.Invested
		value += v.CurrentValue
	}

	byName := func(a, b model.HoldingValuation) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Code, b.Code))
	}
	slices.SortFunc(s.Holdings, byName)
	slices.SortFunc(s.Closed, byName)

	s.TotalInvested = tools.Round(invested, 2)
	s.TotalCurrentValue = tools.Round(value, 2)
	s.TotalGain = tools.Round(value-invested, 2)
	s.TotalRealizedPnL = tools.Round(realized, 2)

	all := slices.Clone(flows)
	if value > 0 {
		all = append(all, model.CashFlow{Date: asOf, Amount: value})
	}
	s.XIRR = tools.Round(xirr.Solve(all), 2)

	return s
}

// FinancialYear names the April to March year containing t, e.g. "FY2023-24".
func FinancialYear(t time.Time) string {
	start := t.Year()
	if t.Month() < time.April {
		start--
	}
	return fmt.Sprintf("FY%d-%02d", start, (start+1)%100)
}

// RealizedByFinancialYear groups realized P&L by the financial year of each
// position's last sale, newest year first.
func RealizedByFinancialYear(vals []model.HoldingValuation) []model.FinancialYearRealized {
	byYear := make(map[string]*model.FinancialYearRealized)
	for _, v := range vals {
		if v.LastSold == nil || v.UnitsSold <= 0 {
			continue
		}
		fy := FinancialYear(*v.LastSold)
		r, ok := byYear[fy]
		if !ok {
			r = &model.FinancialYearRealized{Year: fy}
			byYear[fy] = r
		}

		if v.TaxStatus == model.LongTerm {
			r.LongTerm += v.RealizedPnL
		} else {
			r.ShortTerm += v.RealizedPnL
		}
		r.Total += v.RealizedPnL
		r.Exited += v.RealizedValue
		r.Invested += v.RealizedValue - v.RealizedPnL
	}

	out := make([]model.FinancialYearRealized, 0, len(byYear))
	for _, r := range byYear {
		r.ShortTerm = tools.Round(r.ShortTerm, 2)
		r.LongTerm = tools.Round(r.LongTerm, 2)
		r.Total = tools.Round(r.Total, 2)
		r.Exited = tools.Round(r.Exited, 2)
		r.Invested = tools.Round(r.Invested, 2)
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b model.FinancialYearRealized) int { return cmp.Compare(b.Year, a.Year) })

	return out
}
