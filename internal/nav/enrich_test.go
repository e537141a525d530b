package nav

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type meta struct{ category, house string }

type fakeMetaStore struct {
	mu   sync.Mutex
	meta map[string]meta
}

func (f *fakeMetaStore) Meta(_ context.Context, code string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.meta[code]
	return m.category, m.house, nil
}

func (f *fakeMetaStore) UpdateMeta(_ context.Context, code, category, fundHouse string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meta[code] = meta{category, fundHouse}
	return nil
}

type fakeMetaSource map[string]model.SchemeMeta

func (f fakeMetaSource) Latest(_ context.Context, code string) (*model.SchemeResponse, error) {
	m, ok := f[code]
	if !ok {
		return nil, errors.New("timeout")
	}
	return &model.SchemeResponse{Meta: m, Status: "SUCCESS"}, nil
}

func TestEnrich(t *testing.T) {
	store := &fakeMetaStore{meta: map[string]meta{
		"1": {"Equity Scheme", ""},
		"2": {"Debt Scheme", "ABSL"},
		"3": {"Old", "Old House"},
	}}
	src := fakeMetaSource{
		"1": {SchemeCategory: "Equity Scheme", FundHouse: "HDFC Mutual Fund"},
		"2": {SchemeCategory: "Debt Scheme", FundHouse: "ABSL"},
		"3": {SchemeCategory: "", FundHouse: "  "},
	}
	e := NewEnricher(store, src, 2, logger.NewNop())

	updated, err := e.Enrich(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, meta{"Equity Scheme", "HDFC Mutual Fund"}, store.meta["1"])

	updated, err = e.Enrich(context.Background(), "2")
	require.NoError(t, err)
	assert.False(t, updated)

	updated, err = e.Enrich(context.Background(), "3")
	require.NoError(t, err)
	assert.False(t, updated)
	assert.Equal(t, meta{"Old", "Old House"}, store.meta["3"])
}

func TestEnrichRunSkipsFailures(t *testing.T) {
	store := &fakeMetaStore{meta: map[string]meta{}}
	src := fakeMetaSource{
		"1": {SchemeCategory: "Equity Scheme", FundHouse: "HDFC"},
		"3": {SchemeCategory: "Debt Scheme", FundHouse: "ABSL"},
	}

	res := NewEnricher(store, src, 2, logger.NewNop()).Run(context.Background(), []string{"1", "2", "3"})
	assert.Equal(t, 2, res.Enriched)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, model.InstrumentFailure{Code: "2", Stage: "enrich", Error: res.Failures[0].Error}, res.Failures[0])
}
