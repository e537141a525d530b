package model

import "time"

type TaxStatus string

const (
	ShortTerm TaxStatus = "Short Term"
	LongTerm  TaxStatus = "Long Term"
)

type HoldingValuation struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	FundHouse string `json:"fund_house"`

	Units         float64    `json:"total_units"`
	Invested      float64    `json:"invested_amount"`
	AverageCost   float64    `json:"average_cost"`
	CurrentPrice  float64    `json:"current_price"`
	PriceDate     *time.Time `json:"price_date"`
	CurrentValue  float64    `json:"current_value"`
	AbsReturn     float64    `json:"absolute_return"`
	ReturnPercent float64    `json:"return_percentage"`
	XIRR          float64    `json:"xirr"`

	RealizedPnL    float64    `json:"realized_pnl"`
	RealizedValue  float64    `json:"realized_value"`
	UnitsSold      float64    `json:"total_units_sold"`
	AvgBuyPrice    float64    `json:"average_buy_price"`
	AvgSoldPrice   float64    `json:"average_sold_price"`
	FirstInvested  time.Time  `json:"first_investment_date"`
	LastSold       *time.Time `json:"last_sell_date"`
	TaxStatus      TaxStatus  `json:"tax_status"`
	RedemptionDate *time.Time `json:"redemption_date"`

	High52w     float64    `json:"high_52w"`
	High52wDate *time.Time `json:"high_52w_date"`
	Low52w      float64    `json:"low_52w"`
	Low52wDate  *time.Time `json:"low_52w_date"`
}

type PortfolioSummary struct {
	Holdings []HoldingValuation `json:"holdings"`
	Closed   []HoldingValuation `json:"closed"`

	TotalInvested     float64   `json:"total_invested"`
	TotalCurrentValue float64   `json:"total_current_value"`
	TotalGain         float64   `json:"total_gain"`
	TotalRealizedPnL  float64   `json:"total_realized_pnl"`
	XIRR              float64   `json:"portfolio_xirr"`
	AsOf              time.Time `json:"as_of"`
}

// FinancialYearRealized aggregates realized P&L of positions whose last sale
// falls in the financial year.
type FinancialYearRealized struct {
	Year      string  `json:"fy"`
	ShortTerm float64 `json:"short_term"`
	LongTerm  float64 `json:"long_term"`
	Total     float64 `json:"total"`
	Invested  float64 `json:"invested"`
	Exited    float64 `json:"exited"`
}
