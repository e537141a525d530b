// Package report renders valuations and sync results as plain text tables.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/model"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

func date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func WriteSummary(w io.Writer, s *model.PortfolioSummary) error {
	if s == nil {
		_, err := fmt.Fprintln(w, "no investments recorded")
		return err
	}

	fmt.Fprintf(w, "Portfolio as of %s\n\n", s.AsOf.Format(time.DateOnly))

	tw := newTable(w)
	fmt.Fprintln(tw, "Code\tScheme\tUnits\tAvg cost\tNAV\tInvested\tValue\tReturn\tReturn %\tXIRR %\t52w low\t52w high\tTax\tRedeem by\t")
	for _, h := range s.Holdings {
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%.4f\t%s\t%s\t%s\t%.2f\t%.2f\t%.4f\t%.4f\t%s\t%s\t\n",
			h.Code, shorten(h.Name, 40), h.Units, h.AverageCost, h.CurrentPrice,
			INR(h.Invested), INR(h.CurrentValue), SignedINR(h.AbsReturn), h.ReturnPercent, h.XIRR,
			h.Low52w, h.High52w, h.TaxStatus, date(h.RedemptionDate))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("%w: can't write holdings", err)
	}

	if len(s.Closed) > 0 {
		fmt.Fprintln(w, "\nClosed positions")
		tw = newTable(w)
		fmt.Fprintln(tw, "Code\tScheme\tUnits sold\tAvg buy\tAvg sold\tProceeds\tRealized\tLast sale\tTax\t")
		for _, h := range s.Closed {
			fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%.4f\t%s\t%s\t%s\t%s\t\n",
				h.Code, shorten(h.Name, 40), h.UnitsSold, h.AvgBuyPrice, h.AvgSoldPrice,
				INR(h.RealizedValue), SignedINR(h.RealizedPnL), date(h.LastSold), h.TaxStatus)
		}
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("%w: can't write closed positions", err)
		}
	}

	fmt.Fprintf(w, "\nInvested %s, value %s, gain %s, realized %s, XIRR %.2f%%\n",
		INR(s.TotalInvested), INR(s.TotalCurrentValue), SignedINR(s.TotalGain), SignedINR(s.TotalRealizedPnL), s.XIRR)

	return nil
}

func WriteRealized(w io.Writer, years []model.FinancialYearRealized) error {
	if len(years) == 0 {
		_, err := fmt.Fprintln(w, "no realized gains")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "Year\tCost\tProceeds\tShort term\tLong term\tTotal\t")
	for _, y := range years {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			y.Year, INR(y.Invested), INR(y.Exited), SignedINR(y.ShortTerm), SignedINR(y.LongTerm), SignedINR(y.Total))
	}
	return tw.Flush()
}

func WriteSyncReport(w io.Writer, r model.SyncReport) error {
	fmt.Fprintf(w, "run %s finished in %s\n", r.RunID, r.Duration.Round(time.Millisecond))

	tw := newTable(w)
	fmt.Fprintf(tw, "tracked instruments\t%d\t\n", r.Tracked)
	fmt.Fprintf(tw, "feed records stored\t%d\t\n", r.Processed)
	fmt.Fprintf(tw, "instruments backfilled\t%d\t\n", r.Backfilled)
	fmt.Fprintf(tw, "history rows inserted\t%d\t\n", r.HistoryInserted)
	fmt.Fprintf(tw, "instruments enriched\t%d\t\n", r.Enriched)
	fmt.Fprintf(tw, "failures\t%d\t\n", len(r.Failures))
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, f := range r.Failures {
		fmt.Fprintf(w, "  %s %s: %s\n", f.Stage, f.Code, f.Error)
	}
	return nil
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
