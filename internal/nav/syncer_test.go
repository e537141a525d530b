package nav

import (
	"context"
	"errors"
	"iter"
	"slices"
	"testing"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/config"
	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	doc string
	err error
}

func (f fakeFeed) Fetch(context.Context) (string, error) { return f.doc, f.err }

type fakeTracked []string

func (f fakeTracked) TrackedCodes(context.Context) ([]string, error) { return f, nil }

type recordingApplier struct {
	records []model.FeedRecord
	tracked map[string]struct{}
}

func (r *recordingApplier) Apply(_ context.Context, records iter.Seq[model.FeedRecord], tracked map[string]struct{}) (int, error) {
	r.records = slices.Collect(records)
	r.tracked = tracked
	return len(r.records), nil
}

const _feedDoc = "Open Ended Schemes(Equity Scheme - Large Cap Fund)\n" +
	"1;INF1;-;Fund One;10.5;04-Mar-2024\n" +
	"2;INF2;-;Fund Two;N.A.;04-Mar-2024\n" +
	"3;INF3;-;Fund Three;30.25;04-Mar-2024\n"

func TestSyncerRun(t *testing.T) {
	applier := &recordingApplier{}
	hs := &fakeHistoryStore{
		coverage: map[string]model.HistoryCoverage{
			"1": {Latest: []time.Time{day("2024-03-04"), day("2024-03-01")}, Earliest: ptr(day("2023-01-01"))},
		},
		existing: map[string]map[time.Time]struct{}{},
	}
	bf := NewBackfiller(hs, fakeHistorySource{"3": history(day("2024-03-04"), 4)}, _staleAfter, 3000, 2, logger.NewNop())
	ms := &fakeMetaStore{meta: map[string]meta{}}
	en := NewEnricher(ms, fakeMetaSource{"1": {SchemeCategory: "Equity Scheme", FundHouse: "HDFC"}}, 2, logger.NewNop())

	s := NewSyncer(fakeFeed{doc: _feedDoc}, fakeTracked{"1", "3"}, applier, bf, en, config.SyncConfig{}, logger.NewNop())

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Tracked)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Backfilled)
	assert.Equal(t, 4, report.HistoryInserted)
	assert.Equal(t, 1, report.Enriched)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "3", report.Failures[0].Code)
	assert.Equal(t, "enrich", report.Failures[0].Stage)

	assert.Equal(t, []string{"1", "3"}, []string{applier.records[0].Code, applier.records[1].Code})
	assert.Equal(t, "Equity Scheme - Large Cap Fund", applier.records[1].Category)
	assert.Contains(t, applier.tracked, "3")
}

func TestSyncerSkipEnrich(t *testing.T) {
	hs := &fakeHistoryStore{coverage: map[string]model.HistoryCoverage{}, existing: map[string]map[time.Time]struct{}{}}
	bf := NewBackfiller(hs, fakeHistorySource{}, _staleAfter, 3000, 1, logger.NewNop())
	ms := &fakeMetaStore{meta: map[string]meta{}}
	en := NewEnricher(ms, fakeMetaSource{"1": {SchemeCategory: "x"}}, 1, logger.NewNop())

	s := NewSyncer(fakeFeed{doc: _feedDoc}, fakeTracked{"1"}, &recordingApplier{}, bf, en, config.SyncConfig{SkipEnrich: true}, logger.NewNop())
	report, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Enriched)
	assert.Empty(t, ms.meta)
}

func TestSyncerFeedFailureIsFatal(t *testing.T) {
	s := NewSyncer(fakeFeed{err: errors.New("dial tcp: timeout")}, fakeTracked{"1"}, &recordingApplier{}, nil, nil, config.SyncConfig{}, logger.NewNop())
	_, err := s.Run(context.Background())
	assert.Error(t, err)
}
