package nav

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"github.com/STTM-NSU/fund-tracker/internal/mfapi"
	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/STTM-NSU/fund-tracker/internal/tools"
	"github.com/STTM-NSU/fund-tracker/internal/trace"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type HistorySource interface {
	History(ctx context.Context, code string) (*model.SchemeResponse, error)
}

type HistoryStore interface {
	Coverage(ctx context.Context, code string) (model.HistoryCoverage, error)
	ExistingDates(ctx context.Context, code string) (map[time.Time]struct{}, error)
	InsertHistory(ctx context.Context, points []model.PricePoint) (int, error)
}

// NeedsBackfill reports whether the stored history of an instrument has a gap
// worth repairing, together with the reason.
func NeedsBackfill(cov model.HistoryCoverage, staleAfter time.Duration) (bool, string) {
	switch {
	case len(cov.Latest) == 0 && cov.RequiredFrom != nil:
		return true, "no history for required dates"
	case len(cov.Latest) < 2:
		return true, "fewer than two price points"
	case cov.Latest[0].Sub(cov.Latest[1]) > staleAfter:
		return true, fmt.Sprintf("recent gap %s..%s", cov.Latest[1].Format(time.DateOnly), cov.Latest[0].Format(time.DateOnly))
	case cov.RequiredFrom != nil && cov.Earliest != nil && tools.Day(*cov.RequiredFrom).Before(tools.Day(*cov.Earliest)):
		return true, "history starts after " + cov.RequiredFrom.Format(time.DateOnly)
	}
	return false, ""
}

type BackfillResult struct {
	Backfilled int
	Inserted   int
	Failures   []model.InstrumentFailure
}

type Backfiller struct {
	store      HistoryStore
	source     HistorySource
	staleAfter time.Duration
	rowCap     int
	workers    int

	logger logger.Logger
}

func NewBackfiller(store HistoryStore, source HistorySource, staleAfter time.Duration, rowCap, workers int, logger logger.Logger) *Backfiller {
	return &Backfiller{
		store:      store,
		source:     source,
		staleAfter: staleAfter,
		rowCap:     rowCap,
		workers:    workers,
		logger:     logger,
	}
}

// Backfill repairs the history of one instrument if it needs it. It returns
// the number of inserted rows and whether a fetch was attempted.
func (b *Backfiller) Backfill(ctx context.Context, code string) (inserted int, triggered bool, err error) {
	ctx, span := trace.StartSpan(ctx, "nav.Backfill")
	span.SetAttributes(attribute.String("code", code))
	defer func() {
		span.SetAttributes(attribute.Bool("triggered", triggered), attribute.Int("inserted", inserted))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	cov, err := b.store.Coverage(ctx, code)
	if err != nil {
		return 0, false, err
	}
	need, reason := NeedsBackfill(cov, b.staleAfter)
	if !need {
		return 0, false, nil
	}
	b.logger.Infof("backfilling %s: %s", code, reason)

	res, err := b.source.History(ctx, code)
	if err != nil {
		return 0, true, fmt.Errorf("%w: can't fetch history", err)
	}

	existing, err := b.store.ExistingDates(ctx, code)
	if err != nil {
		return 0, true, err
	}

	points := make([]model.PricePoint, 0, min(len(res.Data), b.rowCap))
	for _, p := range mfapi.ParseHistory(code, res) {
		if len(points) >= b.rowCap {
			break
		}
		if _, ok := existing[tools.Day(p.Date)]; ok {
			continue
		}
		points = append(points, p)
	}

	inserted, err = b.store.InsertHistory(ctx, points)
	if err != nil {
		return 0, true, err
	}
	b.logger.Infof("backfilled %s: %d new price points", code, inserted)

	return inserted, true, nil
}

// Run backfills every code. Failures are isolated per instrument.
func (b *Backfiller) Run(ctx context.Context, instruments []string) BackfillResult {
	var (
		mu     sync.Mutex
		result BackfillResult
	)

	forEachCode(ctx, b.workers, instruments, func(ctx context.Context, code string) {
		inserted, triggered, err := b.Backfill(ctx, code)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			b.logger.Errorf("%s: can't backfill %s", err, code)
			result.Failures = append(result.Failures, model.InstrumentFailure{Code: code, Stage: "backfill", Error: err.Error()})
			return
		}
		if triggered {
			result.Backfilled++
			result.Inserted += inserted
		}
	})

	return result
}
