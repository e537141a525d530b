package model

import (
	"time"
)

type Instrument struct {
	Code        string     `json:"code" db:"code"`
	Name        string     `json:"name" db:"name"`
	AltID1      string     `json:"alt_id_1" db:"alt_id_1"`
	AltID2      string     `json:"alt_id_2" db:"alt_id_2"`
	Category    string     `json:"category" db:"category"`
	FundHouse   string     `json:"fund_house" db:"fund_house"`
	Price       float64    `json:"price" db:"price"`
	PriceDate   *time.Time `json:"price_date" db:"price_date"`
	RefreshedAt *time.Time `json:"refreshed_at" db:"refreshed_at"`
}

type PricePoint struct {
	Code  string    `json:"code" db:"code"`
	Date  time.Time `json:"date" db:"date"`
	Price float64   `json:"price" db:"price"`
}

// FeedRecord is one validated data line of the bulk price document.
type FeedRecord struct {
	Code     string
	AltIDs   [2]string
	Name     string
	Price    float64
	AsOf     time.Time
	Category string
}

// HistoryCoverage describes what is stored locally for one instrument.
type HistoryCoverage struct {
	// Latest holds up to two most recent price dates, newest first.
	Latest []time.Time
	// Earliest is the oldest stored price date.
	Earliest *time.Time
	// RequiredFrom is the earliest watch or investment date.
	RequiredFrom *time.Time
}
