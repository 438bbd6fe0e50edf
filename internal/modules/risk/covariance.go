package risk

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/esfolk/DefiHedge/pkg/formulas"
)

// SampleCovariance returns the N-1 covariance of the daily returns
func SampleCovariance(r *ReturnSeries) *mat.SymDense {
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, r.Returns, nil)
	return &cov
}

// AnnualizedCovariance scales a daily covariance matrix to a year
func AnnualizedCovariance(daily *mat.SymDense) *mat.SymDense {
	n := daily.SymmetricDim()
	annual := mat.NewSymDense(n, nil)
	annual.ScaleSym(formulas.TradingDaysPerYear, daily)
	return annual
}

// AnnualizedMeanReturns returns each asset's mean daily return times 252
func AnnualizedMeanReturns(r *ReturnSeries) []float64 {
	mu := make([]float64, r.NumAssets())
	col := make([]float64, r.Len())
	for j := range mu {
		mat.Col(col, j, r.Returns)
		mu[j] = formulas.AnnualizedReturn(col)
	}
	return mu
}

// portfolioVariance returns wᵀΣw
func portfolioVariance(sigma mat.Symmetric, w []float64) float64 {
	v := mat.NewVecDense(len(w), w)
	return mat.Inner(v, sigma, v)
}
