// Package risk computes modern-portfolio-theory analytics for a set of holdings.
//
// An Analyzer fetches aligned daily closes, converts them to one return
// series, and runs four independent engines over it: risk contribution,
// correlation, efficient frontier and portfolio metrics. Each engine's result
// is a Section that either carries data or the error that engine hit, so one
// failing engine never hides the others.
//
// Percentages are expressed in percent (12.5 means 12.5%). Returns and
// volatilities are annualized with 252 periods per year.
package risk

import (
	"encoding/json"
	"time"

	"github.com/esfolk/DefiHedge/internal/modules/prices"
)

// Section is the outcome of one engine: either Data or Err is set.
type Section[T any] struct {
	Data *T
	Err  error
}

// OK reports whether the section carries data
func (s Section[T]) OK() bool {
	return s.Err == nil && s.Data != nil
}

type sectionError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// MarshalJSON encodes the data, or an {"error", "code"} object on failure
func (s Section[T]) MarshalJSON() ([]byte, error) {
	if s.Err != nil {
		return json.Marshal(sectionError{Error: s.Err.Error(), Code: ErrorCode(s.Err)})
	}
	return json.Marshal(s.Data)
}

// AssetRiskContribution is one asset's share of portfolio variance next to
// its share of portfolio value.
type AssetRiskContribution struct {
	Asset            string  `json:"asset"`
	RiskContribution float64 `json:"risk_contribution"`
	PortfolioWeight  float64 `json:"portfolio_weight"`
}

// RiskContribution is the Euler decomposition of portfolio variance
type RiskContribution struct {
	Data []AssetRiskContribution `json:"data"`
	// TotalPortfolioRisk is the annualized portfolio volatility in percent
	TotalPortfolioRisk float64   `json:"total_portfolio_risk"`
	AnalysisDate       time.Time `json:"analysis_date"`
}

// CorrelationPair is one cell of the correlation matrix
type CorrelationPair struct {
	Asset1      string  `json:"asset1"`
	Asset2      string  `json:"asset2"`
	Correlation float64 `json:"correlation"`
}

// CorrelationSummary aggregates the strict upper triangle of the matrix
type CorrelationSummary struct {
	AverageCorrelation   float64 `json:"average_correlation"`
	MaxCorrelation       float64 `json:"max_correlation"`
	MinCorrelation       float64 `json:"min_correlation"`
	DiversificationRatio float64 `json:"diversification_ratio"`
}

// Correlation is the full pairwise correlation matrix, flattened
type Correlation struct {
	Data               []CorrelationPair  `json:"data"`
	Assets             []string           `json:"assets"`
	Summary            CorrelationSummary `json:"summary"`
	ZeroVarianceAssets []string           `json:"zero_variance_assets,omitempty"`
	AnalysisDate       time.Time          `json:"analysis_date"`
}

// FrontierPoint is a portfolio's annualized return and risk in percent
type FrontierPoint struct {
	Return      float64 `json:"return"`
	Risk        float64 `json:"risk"`
	SharpeRatio float64 `json:"sharpe_ratio"`
}

// OptimalPortfolio is a frontier point together with its weights in percent
type OptimalPortfolio struct {
	FrontierPoint
	Weights map[string]float64 `json:"weights"`
}

// OptimalPortfolios holds the two reference portfolios of the frontier
type OptimalPortfolios struct {
	MaxSharpe     OptimalPortfolio `json:"max_sharpe"`
	MinVolatility OptimalPortfolio `json:"min_volatility"`
}

// EfficientFrontier is the long-only mean-variance frontier
type EfficientFrontier struct {
	FrontierPoints    []FrontierPoint   `json:"frontier_points"`
	CurrentPortfolio  FrontierPoint     `json:"current_portfolio"`
	OptimalPortfolios OptimalPortfolios `json:"optimal_portfolios"`
	// SkippedPoints counts target returns the optimizer could not solve
	SkippedPoints int       `json:"skipped_points"`
	AnalysisDate  time.Time `json:"analysis_date"`
}

// PortfolioMetrics are the summary statistics of the weighted return series
type PortfolioMetrics struct {
	AnnualReturn     float64 `json:"annual_return"`
	AnnualVolatility float64 `json:"annual_volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	VaR95            float64 `json:"var_95"`
	CVaR95           float64 `json:"cvar_95"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	CalmarRatio      float64 `json:"calmar_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	// RecentVolatility is the annualized volatility of the trailing
	// RecentWindowDays returns, omitted for very short series
	RecentVolatility   *float64  `json:"recent_volatility,omitempty"`
	RecentWindowDays   int       `json:"recent_window_days,omitempty"`
	AnalysisPeriodDays int       `json:"analysis_period_days"`
	AnalysisDate       time.Time `json:"analysis_date"`
}

// AnalysisResult aggregates the four engine sections of one analysis.
type AnalysisResult struct {
	ID              string                  `json:"id"`
	LookbackDays    int                     `json:"lookback_days"`
	PeriodStart     time.Time               `json:"period_start"`
	PeriodEnd       time.Time               `json:"period_end"`
	Assets          []string                `json:"assets"`
	ExcludedSymbols []prices.ExcludedSymbol `json:"excluded_symbols"`

	RiskContribution  Section[RiskContribution]  `json:"risk_contribution"`
	Correlation       Section[Correlation]       `json:"correlation"`
	EfficientFrontier Section[EfficientFrontier] `json:"efficient_frontier"`
	PortfolioMetrics  Section[PortfolioMetrics]  `json:"portfolio_metrics"`

	AnalyzedAt time.Time `json:"analyzed_at"`
}
