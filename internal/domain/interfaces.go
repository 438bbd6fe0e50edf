package domain

import (
	"context"
	"time"
)

// PriceSource provides daily closing prices for one provider ticker over an
// inclusive date window. Implementations may return fewer days than the
// window spans; they return an empty slice, not an error, for tickers with
// no data in range.
type PriceSource interface {
	DailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]DailyClose, error)
}
