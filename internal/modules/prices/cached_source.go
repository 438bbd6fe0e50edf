package prices

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/esfolk/DefiHedge/internal/domain"
)

// CachedSource serves closes from the history store while the last download
// covering the requested window is younger than the TTL, and refreshes from
// the upstream source otherwise. When the upstream fails it falls back to
// stale stored closes that cover the window.
type CachedSource struct {
	upstream domain.PriceSource
	store    *HistoryStore
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewCachedSource wraps upstream with the history store
func NewCachedSource(upstream domain.PriceSource, store *HistoryStore, ttl time.Duration, log zerolog.Logger) *CachedSource {
	return &CachedSource{
		upstream: upstream,
		store:    store,
		ttl:      ttl,
		now:      time.Now,
		log:      log.With().Str("component", "price_cache").Logger(),
	}
}

// DailyCloses implements domain.PriceSource
func (c *CachedSource) DailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]domain.DailyClose, error) {
	record, err := c.store.LastFetch(ctx, ticker)
	if err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to read cache record, fetching upstream")
		record = nil
	}

	covered := record != nil && record.Covers(start, end)
	if covered && c.now().Sub(record.FetchedAt) < c.ttl {
		closes, err := c.store.GetCloses(ctx, ticker, start, end)
		if err == nil {
			cacheLookups.WithLabelValues("hit").Inc()
			c.log.Debug().Str("ticker", ticker).Int("days", len(closes)).Msg("Cache hit")
			return closes, nil
		}
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to read cached closes, fetching upstream")
	}

	closes, err := c.upstream.DailyCloses(ctx, ticker, start, end)
	if err != nil {
		if covered && ctx.Err() == nil {
			stale, staleErr := c.store.GetCloses(ctx, ticker, start, end)
			if staleErr == nil {
				cacheLookups.WithLabelValues("stale").Inc()
				c.log.Warn().
					Err(err).
					Str("ticker", ticker).
					Time("fetched_at", record.FetchedAt).
					Msg("Upstream failed, using stale cached closes")
				return stale, nil
			}
		}
		return nil, err
	}

	cacheLookups.WithLabelValues("miss").Inc()
	if err := c.store.SaveCloses(ctx, ticker, start, end, closes, c.now()); err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache closes")
	}

	return closes, nil
}
