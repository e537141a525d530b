package report

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const Currency = money.INR

// INR formats an amount in rupees, rounded to paise.
func INR(amount float64) string {
	cur := money.GetCurrency(Currency)
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0)
	return money.New(minor.IntPart(), Currency).Display()
}

// SignedINR is INR with an explicit plus sign for gains.
func SignedINR(amount float64) string {
	if amount > 0 {
		return "+" + INR(amount)
	}
	return INR(amount)
}
