package nav

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/config"
	"github.com/STTM-NSU/fund-tracker/internal/feed"
	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/STTM-NSU/fund-tracker/internal/trace"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type FeedSource interface {
	Fetch(ctx context.Context) (string, error)
}

type TrackedSource interface {
	TrackedCodes(ctx context.Context) ([]string, error)
}

type RecordApplier interface {
	Apply(ctx context.Context, records iter.Seq[model.FeedRecord], tracked map[string]struct{}) (int, error)
}

// Syncer runs one full cycle: feed upsert, gap recovery, then enrichment.
type Syncer struct {
	feed       FeedSource
	tracked    TrackedSource
	upserter   RecordApplier
	backfiller *Backfiller
	enricher   *Enricher
	cfg        config.SyncConfig

	logger logger.Logger
}

func NewSyncer(
	source FeedSource,
	tracked TrackedSource,
	upserter RecordApplier,
	backfiller *Backfiller,
	enricher *Enricher,
	cfg config.SyncConfig,
	logger logger.Logger,
) *Syncer {
	return &Syncer{
		feed:       source,
		tracked:    tracked,
		upserter:   upserter,
		backfiller: backfiller,
		enricher:   enricher,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *Syncer) Run(ctx context.Context) (model.SyncReport, error) {
	report := model.SyncReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := s.logger.With("run_id", report.RunID)

	ctx, span := trace.StartSpan(ctx, "nav.Sync")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", report.RunID))

	log.Infof("sync started")

	doc, err := s.feed.Fetch(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return report, fmt.Errorf("%w: can't fetch price feed", err)
	}

	tracked, err := s.tracked.TrackedCodes(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}
	report.Tracked = len(tracked)

	trackedSet := make(map[string]struct{}, len(tracked))
	for _, code := range tracked {
		trackedSet[code] = struct{}{}
	}

	upsertCtx, upsertSpan := trace.StartSpan(ctx, "nav.Upsert")
	report.Processed, err = s.upserter.Apply(upsertCtx, feed.Parse(doc), trackedSet)
	upsertSpan.SetAttributes(attribute.Int("records", report.Processed))
	upsertSpan.End()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return report, fmt.Errorf("%w: can't apply price feed", err)
	}
	log.Infof("stored %d feed records, %d tracked instruments", report.Processed, report.Tracked)

	bf := s.backfiller.Run(ctx, tracked)
	report.Backfilled = bf.Backfilled
	report.HistoryInserted = bf.Inserted
	report.Failures = append(report.Failures, bf.Failures...)
	log.Infof("backfilled %d instruments, %d rows", bf.Backfilled, bf.Inserted)

	if !s.cfg.SkipEnrich && s.enricher != nil {
		en := s.enricher.Run(ctx, tracked)
		report.Enriched = en.Enriched
		report.Failures = append(report.Failures, en.Failures...)
		log.Infof("enriched %d instruments", en.Enriched)
	}

	report.Duration = time.Since(report.StartedAt)
	span.SetAttributes(
		attribute.Int("backfilled", report.Backfilled),
		attribute.Int("enriched", report.Enriched),
		attribute.Int("failures", len(report.Failures)),
	)
	log.Infof("sync finished in %s with %d failures", report.Duration, len(report.Failures))

	return report, ctx.Err()
}
