package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestINR(t *testing.T) {
	assert.Equal(t, "₹550.00", INR(550))
	assert.Equal(t, "₹1,234,567.89", INR(1234567.888))
	assert.Equal(t, "-₹50.50", INR(-50.5))
	assert.Equal(t, "+₹100.00", SignedINR(100))
	assert.Equal(t, "₹0.00", SignedINR(0))
}

func TestWriteSummary(t *testing.T) {
	asOf := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	sold := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s := &model.PortfolioSummary{
		Holdings: []model.HoldingValuation{{
			Code: "100", Name: "Alpha Fund", Units: 50, AverageCost: 10, CurrentPrice: 11,
			Invested: 500, CurrentValue: 550, AbsReturn: 50, ReturnPercent: 10, TaxStatus: model.ShortTerm,
		}},
		Closed: []model.HoldingValuation{{
			Code: "300", Name: "Gamma Fund", UnitsSold: 30, RealizedValue: 330, RealizedPnL: 30, LastSold: &sold, TaxStatus: model.LongTerm,
		}},
		TotalInvested:     500,
		TotalCurrentValue: 550,
		TotalGain:         50,
		TotalRealizedPnL:  30,
		XIRR:              12.5,
		AsOf:              asOf,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, s))

	out := buf.String()
	assert.Contains(t, out, "Portfolio as of 2024-07-01")
	assert.Contains(t, out, "Alpha Fund")
	assert.Contains(t, out, "₹550.00")
	assert.Contains(t, out, "Closed positions")
	assert.Contains(t, out, "2024-06-01")
	assert.Contains(t, out, "XIRR 12.50%")
}

func TestWriteSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, nil))
	assert.Equal(t, "no investments recorded\n", buf.String())
}

func TestWriteRealized(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRealized(&buf, []model.FinancialYearRealized{
		{Year: "FY2024-25", ShortTerm: 100, LongTerm: 40, Total: 140, Invested: 700, Exited: 840},
	}))
	assert.Contains(t, buf.String(), "FY2024-25")
	assert.Contains(t, buf.String(), "+₹140.00")
}

func TestWriteSyncReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSyncReport(&buf, model.SyncReport{
		RunID:    "abc",
		Tracked:  3,
		Failures: []model.InstrumentFailure{{Code: "2", Stage: "backfill", Error: "timeout"}},
	}))
	assert.Contains(t, buf.String(), "run abc")
	assert.Contains(t, buf.String(), "backfill 2: timeout")
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "abc", shorten("abc", 5))
	assert.Equal(t, "abcd…", shorten("abcdefgh", 5))
}
