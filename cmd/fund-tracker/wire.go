package main

import (
	"github.com/STTM-NSU/fund-tracker/internal/feed"
	"github.com/STTM-NSU/fund-tracker/internal/mfapi"
	"github.com/STTM-NSU/fund-tracker/internal/nav"
	"github.com/STTM-NSU/fund-tracker/internal/portfolio"
	"github.com/STTM-NSU/fund-tracker/internal/valuation"
)

func (a *app) historyClient() *mfapi.Client {
	return mfapi.NewClient(a.cfg.History, a.logger.With("component", "mfapi"))
}

func (a *app) backfiller(history *mfapi.Client) *nav.Backfiller {
	return nav.NewBackfiller(
		nav.NewStore(a.db), history,
		a.cfg.Sync.StaleAfter, a.cfg.Sync.BackfillRowCap, a.cfg.Sync.Workers,
		a.logger.With("component", "backfill"),
	)
}

func (a *app) enricher(history *mfapi.Client) *nav.Enricher {
	return nav.NewEnricher(nav.NewStore(a.db), history, a.cfg.Sync.Workers, a.logger.With("component", "enrich"))
}

func (a *app) syncer(prices *feed.Client, history *mfapi.Client) *nav.Syncer {
	return nav.NewSyncer(
		prices,
		nav.NewStore(a.db),
		nav.NewUpserter(a.db, a.cfg.Sync.BatchSize, a.logger.With("component", "upsert")),
		a.backfiller(history),
		a.enricher(history),
		a.cfg.Sync,
		a.logger.With("component", "sync"),
	)
}

func (a *app) valuation() *valuation.Service {
	return valuation.NewService(
		valuation.NewStore(a.db),
		valuation.NewEngine(a.cfg.Valuation),
		a.logger.With("component", "valuation"),
	)
}

func (a *app) ledger() *portfolio.Ledger {
	return portfolio.NewLedger(a.db, a.cfg.Valuation.ZeroEpsilon, a.logger.With("component", "ledger"))
}
