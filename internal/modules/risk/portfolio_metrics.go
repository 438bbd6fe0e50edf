package risk

import (
	"fmt"
	"math"

	"github.com/esfolk/DefiHedge/pkg/formulas"
)

// RecentVolatilityWindow is the trailing window, in return days, of RecentVolatility
const RecentVolatilityWindow = 30

// ComputePortfolioMetrics summarizes the weighted portfolio return series.
func ComputePortfolioMetrics(r *ReturnSeries, w *Weights) (*PortfolioMetrics, error) {
	if len(w.Values) != r.NumAssets() {
		return nil, fmt.Errorf("%w: %d weights for %d assets", ErrInternal, len(w.Values), r.NumAssets())
	}

	returns := PortfolioReturns(r, w)
	for _, v := range returns {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite portfolio return", ErrInternal)
		}
	}

	annualReturn := formulas.AnnualizedReturn(returns) * 100
	annualVol := formulas.AnnualizedVolatility(returns) * 100
	maxDrawdown := formulas.MaxDrawdownFromReturns(returns) * 100

	m := &PortfolioMetrics{
		AnnualReturn:       annualReturn,
		AnnualVolatility:   annualVol,
		SharpeRatio:        formulas.SharpeRatio(annualReturn, annualVol),
		VaR95:              formulas.Percentile(returns, 5) * 100,
		CVaR95:             formulas.CalculateCVaR(returns, 0.95) * 100,
		MaxDrawdown:        maxDrawdown,
		CalmarRatio:        formulas.CalmarRatio(annualReturn, maxDrawdown),
		SortinoRatio:       formulas.SortinoRatio(annualReturn, formulas.DownsideDeviation(returns)*100),
		AnalysisPeriodDays: len(returns),
	}

	if vol, used, ok := formulas.RecentVolatility(returns, RecentVolatilityWindow); ok {
		recent := vol * 100
		m.RecentVolatility = &recent
		m.RecentWindowDays = used
	}

	return m, nil
}
