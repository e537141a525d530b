package model

import "time"

type InstrumentFailure struct {
	Code  string `json:"code"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

type SyncReport struct {
	RunID           string              `json:"run_id"`
	StartedAt       time.Time           `json:"started_at"`
	Duration        time.Duration       `json:"duration"`
	Tracked         int                 `json:"tracked"`
	Processed       int                 `json:"processed"`
	Backfilled      int                 `json:"backfilled"`
	HistoryInserted int                 `json:"history_inserted"`
	Enriched        int                 `json:"enriched"`
	Failures        []InstrumentFailure `json:"failures,omitempty"`
}
