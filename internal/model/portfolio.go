package model

import "time"

type LotKind string

const (
	SIP        LotKind = "SIP"
	Lumpsum    LotKind = "LUMPSUM"
	Redemption LotKind = "REDEMPTION"
)

const DefaultAccount = "Default"

type InvestmentLot struct {
	ID            int64     `json:"id" db:"id"`
	Code          string    `json:"code" db:"code"`
	Account       string    `json:"account" db:"account_name"`
	Kind          LotKind   `json:"kind" db:"kind"`
	Amount        float64   `json:"amount" db:"amount"` // negative for purchases
	Units         float64   `json:"units" db:"units"`   // negative for redemptions
	Price         float64   `json:"price" db:"price"`
	Date          time.Time `json:"date" db:"purchase_date"`
	HoldingPeriod *float64  `json:"holding_period,omitempty" db:"holding_period"` // years
}

func (l InvestmentLot) IsRedemption() bool {
	return l.Kind == Redemption || l.Units < 0
}

type AggregateHolding struct {
	Code     string  `json:"code" db:"code"`
	Account  string  `json:"account" db:"account_name"`
	Units    float64 `json:"units" db:"total_units"`
	AvgCost  float64 `json:"average_cost" db:"average_cost"`
	Invested float64 `json:"invested" db:"invested_amount"`
}
