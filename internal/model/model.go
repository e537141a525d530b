package model

import "time"

// CashFlow is a dated signed amount from the investor's point of view:
// negative when money is paid in, positive when it is received back.
type CashFlow struct {
	Date   time.Time
	Amount float64
}
