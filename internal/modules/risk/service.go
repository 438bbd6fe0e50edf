package risk

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/esfolk/DefiHedge/internal/domain"
	"github.com/esfolk/DefiHedge/internal/modules/prices"
)

// TableFetcher provides aligned close tables. *prices.Fetcher implements it.
type TableFetcher interface {
	FetchTable(ctx context.Context, symbols []string, lookbackDays int) (*prices.Table, error)
}

// Analyzer runs portfolio risk analyses. It holds no per-request state and is
// safe for concurrent use.
type Analyzer struct {
	fetcher        TableFetcher
	frontierPoints int
	now            func() time.Time
	newID          func() string
	log            zerolog.Logger
}

// AnalyzerOption configures an Analyzer
type AnalyzerOption func(*Analyzer)

// WithFrontierPoints sets the number of frontier targets
func WithFrontierPoints(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.frontierPoints = n
		}
	}
}

// WithClock overrides the clock used to stamp results
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.now = now
	}
}

// WithIDGenerator overrides the result ID generator
func WithIDGenerator(newID func() string) AnalyzerOption {
	return func(a *Analyzer) {
		a.newID = newID
	}
}

// NewAnalyzer creates an analyzer reading prices from fetcher.
func NewAnalyzer(fetcher TableFetcher, log zerolog.Logger, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		fetcher:        fetcher,
		frontierPoints: DefaultFrontierPoints,
		now:            time.Now,
		newID:          uuid.NewString,
		log:            log.With().Str("component", "risk_analyzer").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze fetches lookbackDays of history for the holdings and computes all
// four analysis sections from one return series.
//
// Invalid input and missing price data are returned as errors. Failures of
// an individual engine are reported on its section; the other sections are
// still computed.
func (a *Analyzer) Analyze(ctx context.Context, holdings domain.Holdings, lookbackDays int) (result *AnalysisResult, err error) {
	start := time.Now()
	defer func() {
		analysisDuration.Observe(time.Since(start).Seconds())
		outcome := "ok"
		if err != nil {
			outcome = ErrorCode(err)
		}
		analysesTotal.WithLabelValues(outcome).Inc()
	}()

	if err := validateHoldings(holdings); err != nil {
		return nil, err
	}
	if lookbackDays < prices.MinLookbackDays || lookbackDays > prices.MaxLookbackDays {
		return nil, fmt.Errorf("%w: %d days (allowed %d..%d)",
			ErrInvalidLookback, lookbackDays, prices.MinLookbackDays, prices.MaxLookbackDays)
	}

	table, err := a.fetcher.FetchTable(ctx, holdings.Symbols(), lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history: %w", err)
	}

	returns, err := BuildReturns(table)
	if err != nil {
		return nil, err
	}

	analyzedAt := a.now().UTC()
	result = &AnalysisResult{
		ID:              a.newID(),
		LookbackDays:    lookbackDays,
		PeriodStart:     table.Dates[0],
		PeriodEnd:       table.Dates[len(table.Dates)-1],
		Assets:          append([]string(nil), returns.Assets...),
		ExcludedSymbols: append([]prices.ExcludedSymbol{}, table.Excluded...),
		AnalyzedAt:      analyzedAt,
	}

	cov := SampleCovariance(returns)
	weights, weightsErr := NormalizeWeights(holdings, returns.Assets)
	if weightsErr != nil {
		a.log.Warn().Err(weightsErr).Msg("No portfolio weights, weighted sections are skipped")
	}

	result.RiskContribution = runSection(a, "risk_contribution", func() (*RiskContribution, error) {
		if weightsErr != nil {
			return nil, weightsErr
		}
		rc, err := ComputeRiskContribution(returns, cov, weights)
		if err != nil {
			return nil, err
		}
		rc.AnalysisDate = analyzedAt
		return rc, nil
	})

	result.Correlation = runSection(a, "correlation", func() (*Correlation, error) {
		c, err := ComputeCorrelation(returns, cov)
		if err != nil {
			return nil, err
		}
		c.AnalysisDate = analyzedAt
		return c, nil
	})

	result.EfficientFrontier = runSection(a, "efficient_frontier", func() (*EfficientFrontier, error) {
		if weightsErr != nil {
			return nil, weightsErr
		}
		ef, err := ComputeEfficientFrontier(returns, cov, weights, a.frontierPoints, a.log)
		if err != nil {
			return nil, err
		}
		ef.AnalysisDate = analyzedAt
		return ef, nil
	})

	result.PortfolioMetrics = runSection(a, "portfolio_metrics", func() (*PortfolioMetrics, error) {
		if weightsErr != nil {
			return nil, weightsErr
		}
		pm, err := ComputePortfolioMetrics(returns, weights)
		if err != nil {
			return nil, err
		}
		pm.AnalysisDate = analyzedAt
		return pm, nil
	})

	a.log.Info().
		Str("analysis_id", result.ID).
		Strs("assets", result.Assets).
		Int("excluded", len(result.ExcludedSymbols)).
		Int("lookback_days", lookbackDays).
		Int("return_days", returns.Len()).
		Dur("duration", time.Since(start)).
		Msg("Portfolio analysis complete")

	return result, nil
}

// runSection runs one engine, converting errors and panics into a section error.
func runSection[T any](a *Analyzer, name string, compute func() (*T, error)) (section Section[T]) {
	defer func() {
		if p := recover(); p != nil {
			a.log.Error().Str("section", name).Interface("panic", p).Msg("Analysis section panicked")
			section = Section[T]{Err: fmt.Errorf("%w: %s: %v", ErrInternal, name, p)}
		}
		if section.Err != nil {
			sectionFailures.WithLabelValues(name, ErrorCode(section.Err)).Inc()
		}
	}()

	data, err := compute()
	if err != nil {
		a.log.Warn().Err(err).Str("section", name).Str("code", ErrorCode(err)).Msg("Analysis section failed")
		return Section[T]{Err: err}
	}
	return Section[T]{Data: data}
}

func validateHoldings(holdings domain.Holdings) error {
	if len(holdings) == 0 {
		return fmt.Errorf("%w: no holdings", ErrInvalidHoldings)
	}
	for symbol, value := range holdings {
		if symbol == "" {
			return fmt.Errorf("%w: empty symbol", ErrInvalidHoldings)
		}
		if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%w: %s has value %v", ErrInvalidHoldings, symbol, value)
		}
	}
	return nil
}
