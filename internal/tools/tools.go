package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const _day = 24 * time.Hour

// Round rounds half away from zero to the given number of decimal places.
func Round(number float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(number).Round(places).Float64()
	return f
}

// ParseDecimal parses a plain decimal string. Values like "N.A." or "NaN" are rejected.
func ParseDecimal(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: can't parse decimal %q", err, s)
	}
	f, _ := d.Float64()
	return f, nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / _day)
}

// AddYears adds fractional years using 365.25 days per year.
func AddYears(t time.Time, years float64) time.Time {
	return t.Add(time.Duration(years * 365.25 * float64(_day)))
}
