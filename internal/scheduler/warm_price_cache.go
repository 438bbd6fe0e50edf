package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/esfolk/DefiHedge/internal/domain"
	"github.com/esfolk/DefiHedge/internal/modules/prices"
)

// WarmPriceCacheJob pulls the longest supported window for every supported
// ticker through the cached price source, so analyses are served from the
// local history database.
type WarmPriceCacheJob struct {
	source       domain.PriceSource
	tickers      []string
	lookbackDays int
	timeout      time.Duration
	now          func() time.Time
	log          zerolog.Logger
}

// NewWarmPriceCacheJob creates a warm job over all supported tickers
func NewWarmPriceCacheJob(source domain.PriceSource, timeout time.Duration) *WarmPriceCacheJob {
	tickers := make([]string, 0)
	for _, ticker := range prices.SupportedTickers() {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	return &WarmPriceCacheJob{
		source:       source,
		tickers:      tickers,
		lookbackDays: prices.MaxLookbackDays,
		timeout:      timeout,
		now:          time.Now,
		log:          zerolog.Nop(),
	}
}

// SetLogger sets the logger for the job
func (j *WarmPriceCacheJob) SetLogger(log zerolog.Logger) {
	j.log = log.With().Str("job", j.Name()).Logger()
}

// Name returns the job name
func (j *WarmPriceCacheJob) Name() string {
	return "warm_price_cache"
}

// Run executes the warm price cache job. It fails only when no ticker could
// be refreshed.
func (j *WarmPriceCacheJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	end := domain.TruncateToDay(j.now())
	start := end.AddDate(0, 0, -j.lookbackDays)

	var errs []error
	warmed := 0
	for _, ticker := range j.tickers {
		closes, err := j.source.DailyCloses(ctx, ticker, start, end)
		if err != nil {
			j.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to warm price history")
			errs = append(errs, fmt.Errorf("%s: %w", ticker, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		j.log.Debug().Str("ticker", ticker).Int("closes", len(closes)).Msg("Warmed price history")
		warmed++
	}

	j.log.Info().
		Int("warmed", warmed).
		Int("failed", len(errs)).
		Int("lookback_days", j.lookbackDays).
		Msg("Price cache warm completed")

	if warmed == 0 && len(errs) > 0 {
		return fmt.Errorf("price cache warm failed for all tickers: %w", errors.Join(errs...))
	}
	return nil
}
