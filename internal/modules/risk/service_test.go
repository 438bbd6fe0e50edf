package risk

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esfolk/DefiHedge/internal/domain"
	"github.com/esfolk/DefiHedge/internal/modules/prices"
)

func contributionOf(rc *RiskContribution, asset string) AssetRiskContribution {
	for _, d := range rc.Data {
		if d.Asset == asset {
			return d
		}
	}
	return AssetRiskContribution{}
}

func TestAnalyzer_EthUsdcPortfolio(t *testing.T) {
	a := newTestAnalyzer(marketSource(120))

	result, err := a.Analyze(context.Background(), domain.Holdings{"ETH": 7500, "USDC": 2500}, 90)
	require.NoError(t, err)

	assert.Equal(t, "test-analysis", result.ID)
	assert.Equal(t, []string{"ETH", "USDC"}, result.Assets)
	assert.Empty(t, result.ExcludedSymbols)
	assert.Equal(t, 90, result.LookbackDays)
	assert.Equal(t, testNow, result.AnalyzedAt)

	require.True(t, result.RiskContribution.OK())
	usdc := contributionOf(result.RiskContribution.Data, "USDC")
	assert.InDelta(t, 0.0, usdc.RiskContribution, 1e-9)
	assert.InDelta(t, 25.0, usdc.PortfolioWeight, 1e-9)
	assert.InDelta(t, 100.0, contributionOf(result.RiskContribution.Data, "ETH").RiskContribution, 1e-9)
	assert.Equal(t, testNow, result.RiskContribution.Data.AnalysisDate)

	require.True(t, result.Correlation.OK())
	assert.Equal(t, []string{"USDC"}, result.Correlation.Data.ZeroVarianceAssets)

	require.True(t, result.EfficientFrontier.OK())
	minVol := result.EfficientFrontier.Data.OptimalPortfolios.MinVolatility
	assert.InDelta(t, 100.0, minVol.Weights["USDC"], 0.5)

	require.True(t, result.PortfolioMetrics.OK())
	assert.Equal(t, 90, result.PortfolioMetrics.Data.AnalysisPeriodDays)
}

func TestAnalyzer_UnsupportedSymbolIsExcluded(t *testing.T) {
	a := newTestAnalyzer(marketSource(120))

	result, err := a.Analyze(context.Background(), domain.Holdings{"ETH": 5000, "BTC": 5000, "FAKE123": 1000}, 60)
	require.NoError(t, err)

	assert.Equal(t, []string{"BTC", "ETH"}, result.Assets)
	assert.Equal(t, []prices.ExcludedSymbol{{Symbol: "FAKE123", Reason: prices.ReasonUnsupportedSymbol}}, result.ExcludedSymbols)

	require.True(t, result.RiskContribution.OK())
	for _, d := range result.RiskContribution.Data.Data {
		assert.InDelta(t, 50.0, d.PortfolioWeight, 1e-9)
	}
}

func TestAnalyzer_SingleAsset(t *testing.T) {
	a := newTestAnalyzer(marketSource(120))

	result, err := a.Analyze(context.Background(), domain.Holdings{"ETH": 1000}, 60)
	require.NoError(t, err)

	assert.ErrorIs(t, result.Correlation.Err, ErrInsufficientAssets)
	assert.ErrorIs(t, result.EfficientFrontier.Err, ErrInsufficientAssets)

	require.True(t, result.RiskContribution.OK())
	assert.InDelta(t, 100.0, result.RiskContribution.Data.Data[0].RiskContribution, 1e-9)
	assert.True(t, result.PortfolioMetrics.OK())
}

func TestAnalyzer_Idempotent(t *testing.T) {
	a := newTestAnalyzer(marketSource(200))
	holdings := domain.Holdings{"ETH": 4000, "BTC": 3000, "SOL": 2000, "USDC": 1000}

	first, err := a.Analyze(context.Background(), holdings, 180)
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), holdings, 180)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestAnalyzer_LookbackBounds(t *testing.T) {
	a := newTestAnalyzer(marketSource(1100))
	holdings := domain.Holdings{"ETH": 1000, "BTC": 1000}

	for _, days := range []int{30, 1095} {
		result, err := a.Analyze(context.Background(), holdings, days)
		require.NoError(t, err, "lookback %d", days)
		assert.Equal(t, days, result.PortfolioMetrics.Data.AnalysisPeriodDays)
	}

	for _, days := range []int{0, 29, 1096} {
		_, err := a.Analyze(context.Background(), holdings, days)
		assert.ErrorIs(t, err, ErrInvalidLookback, "lookback %d", days)
	}
}

func TestAnalyzer_InvalidHoldings(t *testing.T) {
	a := newTestAnalyzer(marketSource(60))

	tests := []struct {
		name     string
		holdings domain.Holdings
	}{
		{"empty", domain.Holdings{}},
		{"nil", nil},
		{"zero value", domain.Holdings{"ETH": 0}},
		{"negative value", domain.Holdings{"ETH": 100, "BTC": -5}},
		{"empty symbol", domain.Holdings{"": 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Analyze(context.Background(), tt.holdings, 30)
			assert.ErrorIs(t, err, ErrInvalidHoldings)
			assert.Equal(t, "invalid_holdings", ErrorCode(err))
		})
	}
}

func TestAnalyzer_FetchFailureIsFatal(t *testing.T) {
	fetchErr := errors.New("provider down")
	a := NewAnalyzer(stubFetcher{err: errors.Join(ErrDataUnavailable, fetchErr)}, zerolog.Nop())

	_, err := a.Analyze(context.Background(), domain.Holdings{"ETH": 100}, 30)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorIs(t, err, fetchErr)
}

func TestAnalyzer_OnlyUnsupportedSymbols(t *testing.T) {
	a := newTestAnalyzer(marketSource(60))

	_, err := a.Analyze(context.Background(), domain.Holdings{"FAKE123": 100}, 30)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestAnalyzer_TooFewPriceRows(t *testing.T) {
	table := tableOf([]string{"ETH"}, []float64{100, 101})
	a := NewAnalyzer(stubFetcher{table: table}, zerolog.Nop())

	_, err := a.Analyze(context.Background(), domain.Holdings{"ETH": 100}, 30)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestAnalyzer_NoWeightsStillCorrelates(t *testing.T) {
	table := tableOf([]string{"BTC", "SOL"},
		[]float64{100, 102, 101, 105, 104},
		[]float64{10, 9, 11, 10, 12},
	)
	a := NewAnalyzer(stubFetcher{table: table}, zerolog.Nop())

	result, err := a.Analyze(context.Background(), domain.Holdings{"ETH": 100}, 30)
	require.NoError(t, err)

	assert.ErrorIs(t, result.RiskContribution.Err, ErrNoWeights)
	assert.ErrorIs(t, result.EfficientFrontier.Err, ErrNoWeights)
	assert.ErrorIs(t, result.PortfolioMetrics.Err, ErrNoWeights)
	assert.True(t, result.Correlation.OK())
}

func TestRunSection_RecoversPanic(t *testing.T) {
	a := NewAnalyzer(stubFetcher{}, zerolog.Nop())

	section := runSection(a, "correlation", func() (*Correlation, error) {
		var r *ReturnSeries
		return ComputeCorrelation(r, nil)
	})

	assert.False(t, section.OK())
	assert.ErrorIs(t, section.Err, ErrInternal)
	assert.Equal(t, "internal", ErrorCode(section.Err))
}
