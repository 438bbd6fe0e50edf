package prices

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/esfolk/DefiHedge/internal/domain"
)

// Lookback bounds in calendar days
const (
	MinLookbackDays = 30
	MaxLookbackDays = 1095
)

var (
	// ErrDataUnavailable means no usable price table could be built. It is
	// fatal to an analysis.
	ErrDataUnavailable = errors.New("price data unavailable")
	// ErrInvalidLookback means the lookback is outside [MinLookbackDays, MaxLookbackDays].
	ErrInvalidLookback = errors.New("invalid lookback")
)

// Fetcher downloads closes for a set of symbols and aligns them into a Table.
type Fetcher struct {
	source      domain.PriceSource
	concurrency int
	now         func() time.Time
	log         zerolog.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithConcurrency bounds the number of tickers fetched in parallel
func WithConcurrency(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithClock overrides the wall clock used to place the lookback window
func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) {
		f.now = now
	}
}

// NewFetcher creates a fetcher reading from source
func NewFetcher(source domain.PriceSource, log zerolog.Logger, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		source:      source,
		concurrency: 4,
		now:         time.Now,
		log:         log.With().Str("component", "price_fetcher").Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Window returns the inclusive [start, end] UTC day range for a lookback.
func (f *Fetcher) Window(lookbackDays int) (time.Time, time.Time) {
	end := domain.TruncateToDay(f.now())
	return end.AddDate(0, 0, -lookbackDays), end
}

// FetchTable returns the aligned close table for symbols over the last
// lookbackDays. Unsupported symbols and symbols whose download fails or
// lacks coverage are left out and listed in Table.Excluded.
func (f *Fetcher) FetchTable(ctx context.Context, symbols []string, lookbackDays int) (*Table, error) {
	if lookbackDays < MinLookbackDays || lookbackDays > MaxLookbackDays {
		return nil, fmt.Errorf("%w: %d days (allowed %d..%d)", ErrInvalidLookback, lookbackDays, MinLookbackDays, MaxLookbackDays)
	}

	var excluded []ExcludedSymbol
	mapped := make(map[string]string)
	for _, symbol := range symbols {
		if _, seen := mapped[symbol]; seen {
			continue
		}
		ticker, ok := TickerFor(symbol)
		if !ok {
			excluded = append(excluded, ExcludedSymbol{Symbol: symbol, Reason: ReasonUnsupportedSymbol})
			continue
		}
		mapped[symbol] = ticker
	}

	for _, ex := range excluded {
		f.log.Info().Str("symbol", ex.Symbol).Msg("Symbol has no price ticker, excluding from analysis")
	}

	if len(mapped) == 0 {
		return nil, fmt.Errorf("%w: none of %d symbols is supported", ErrDataUnavailable, len(symbols))
	}

	start, end := f.Window(lookbackDays)

	var (
		mu     sync.Mutex
		series = make(map[string][]domain.DailyClose, len(mapped))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for symbol, ticker := range mapped {
		symbol, ticker := symbol, ticker
		g.Go(func() error {
			closes, err := f.source.DailyCloses(gctx, ticker, start, end)
			if err != nil {
				// A single failing ticker is not fatal; the symbol drops out.
				fetchFailures.WithLabelValues(ticker).Inc()
				f.log.Warn().
					Err(err).
					Str("symbol", symbol).
					Str("ticker", ticker).
					Msg("Failed to fetch price history")
				closes = nil
			}

			mu.Lock()
			series[symbol] = closes
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	table := assembleTable(series)
	table.Excluded = append(excluded, table.Excluded...)
	sort.Slice(table.Excluded, func(i, j int) bool { return table.Excluded[i].Symbol < table.Excluded[j].Symbol })

	if len(table.Symbols) == 0 || table.Rows() == 0 {
		return nil, fmt.Errorf("%w: no aligned prices between %s and %s",
			ErrDataUnavailable, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	f.log.Info().
		Int("requested", len(symbols)).
		Int("symbols", len(table.Symbols)).
		Int("excluded", len(table.Excluded)).
		Int("days", table.Rows()).
		Msg("Built price table")

	return table, nil
}
