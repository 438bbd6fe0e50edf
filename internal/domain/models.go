// Package domain provides core domain models and types.
package domain

import "time"

// DailyClose is one end-of-day closing price. Date is a UTC midnight.
type DailyClose struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Holdings maps an asset symbol (e.g. "ETH") to its USD value.
type Holdings map[string]float64

// Total returns the summed USD value
func (h Holdings) Total() float64 {
	total := 0.0
	for _, v := range h {
		total += v
	}
	return total
}

// Symbols returns the holding symbols in no particular order
func (h Holdings) Symbols() []string {
	symbols := make([]string, 0, len(h))
	for s := range h {
		symbols = append(symbols, s)
	}
	return symbols
}

// TruncateToDay normalizes a timestamp to its UTC calendar day
func TruncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
