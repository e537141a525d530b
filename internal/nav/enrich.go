package nav

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"github.com/STTM-NSU/fund-tracker/internal/model"
)

type MetaSource interface {
	Latest(ctx context.Context, code string) (*model.SchemeResponse, error)
}

type MetaStore interface {
	Meta(ctx context.Context, code string) (category, fundHouse string, err error)
	UpdateMeta(ctx context.Context, code, category, fundHouse string) error
}

type EnrichResult struct {
	Enriched int
	Failures []model.InstrumentFailure
}

// Enricher fills instrument category and fund house from the history source.
type Enricher struct {
	store   MetaStore
	source  MetaSource
	workers int

	logger logger.Logger
}

func NewEnricher(store MetaStore, source MetaSource, workers int, logger logger.Logger) *Enricher {
	return &Enricher{
		store:   store,
		source:  source,
		workers: workers,
		logger:  logger,
	}
}

// Enrich reports whether the stored metadata of code changed.
func (e *Enricher) Enrich(ctx context.Context, code string) (bool, error) {
	res, err := e.source.Latest(ctx, code)
	if err != nil {
		return false, fmt.Errorf("%w: can't fetch scheme meta", err)
	}

	category, fundHouse, err := e.store.Meta(ctx, code)
	if err != nil {
		return false, err
	}

	newCategory, newHouse := category, fundHouse
	if c := strings.TrimSpace(res.Meta.SchemeCategory); c != "" {
		newCategory = c
	}
	if h := strings.TrimSpace(res.Meta.FundHouse); h != "" {
		newHouse = h
	}
	if newCategory == category && newHouse == fundHouse {
		return false, nil
	}

	if err := e.store.UpdateMeta(ctx, code, newCategory, newHouse); err != nil {
		return false, err
	}
	e.logger.Debugf("enriched %s: category=%q fund_house=%q", code, newCategory, newHouse)

	return true, nil
}

func (e *Enricher) Run(ctx context.Context, codes []string) EnrichResult {
	var (
		mu     sync.Mutex
		result EnrichResult
	)

	forEachCode(ctx, e.workers, codes, func(ctx context.Context, code string) {
		updated, err := e.Enrich(ctx, code)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			e.logger.Warnf("%s: can't enrich %s", err, code)
			result.Failures = append(result.Failures, model.InstrumentFailure{Code: code, Stage: "enrich", Error: err.Error()})
			return
		}
		if updated {
			result.Enriched++
		}
	})

	return result
}
