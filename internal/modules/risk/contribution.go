package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/esfolk/DefiHedge/pkg/formulas"
)

// minPortfolioVariance is the daily variance below which risk shares are undefined
const minPortfolioVariance = 1e-18

// ComputeRiskContribution splits portfolio variance into per-asset Euler
// contributions: w_i(Σw)_i / wᵀΣw, reported in percent next to each value
// weight. The contributions sum to 100.
func ComputeRiskContribution(r *ReturnSeries, cov *mat.SymDense, w *Weights) (*RiskContribution, error) {
	n := r.NumAssets()
	if cov.SymmetricDim() != n || len(w.Values) != n {
		return nil, fmt.Errorf("%w: %d assets, %dx%d covariance, %d weights",
			ErrInternal, n, cov.SymmetricDim(), cov.SymmetricDim(), len(w.Values))
	}

	wv := w.Vec()
	var marginal mat.VecDense
	marginal.MulVec(cov, wv)

	variance := mat.Dot(wv, &marginal)
	if math.IsNaN(variance) || math.IsInf(variance, 0) || variance <= minPortfolioVariance {
		return nil, fmt.Errorf("%w: portfolio variance %g", ErrDegenerateVariance, variance)
	}

	data := make([]AssetRiskContribution, n)
	for i, asset := range r.Assets {
		data[i] = AssetRiskContribution{
			Asset:            asset,
			RiskContribution: 100 * w.Values[i] * marginal.AtVec(i) / variance,
			PortfolioWeight:  100 * w.Values[i],
		}
	}

	return &RiskContribution{
		Data:               data,
		TotalPortfolioRisk: math.Sqrt(variance) * math.Sqrt(formulas.TradingDaysPerYear) * 100,
	}, nil
}
