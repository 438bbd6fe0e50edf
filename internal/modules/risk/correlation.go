package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// zeroVarianceThreshold is the daily variance at or below which an asset is
// treated as constant
const zeroVarianceThreshold = 1e-20

// ComputeCorrelation derives the pairwise correlation matrix from the sample
// covariance. A constant asset has no defined correlation: its diagonal is
// reported as 1, its off-diagonal cells as 0, and it is listed in
// ZeroVarianceAssets.
func ComputeCorrelation(r *ReturnSeries, cov *mat.SymDense) (*Correlation, error) {
	n := r.NumAssets()
	if n < 2 {
		return nil, fmt.Errorf("%w: correlation needs at least 2 assets, have %d", ErrInsufficientAssets, n)
	}

	stddev := make([]float64, n)
	var zeroVariance []string
	for i := 0; i < n; i++ {
		v := cov.At(i, i)
		if v <= zeroVarianceThreshold || math.IsNaN(v) {
			zeroVariance = append(zeroVariance, r.Assets[i])
			continue
		}
		stddev[i] = math.Sqrt(v)
	}

	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		corr.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			if stddev[i] == 0 || stddev[j] == 0 {
				continue
			}
			c := cov.At(i, j) / (stddev[i] * stddev[j])
			// Rounding can push |c| slightly past 1
			corr.SetSym(i, j, math.Max(-1, math.Min(1, c)))
		}
	}

	data := make([]CorrelationPair, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			data = append(data, CorrelationPair{
				Asset1:      r.Assets[i],
				Asset2:      r.Assets[j],
				Correlation: corr.At(i, j),
			})
		}
	}

	return &Correlation{
		Data:               data,
		Assets:             append([]string(nil), r.Assets...),
		Summary:            summarizeCorrelation(corr),
		ZeroVarianceAssets: zeroVariance,
	}, nil
}

// summarizeCorrelation aggregates the strict upper triangle
func summarizeCorrelation(corr *mat.SymDense) CorrelationSummary {
	n := corr.SymmetricDim()
	sum := 0.0
	count := 0
	maxC := math.Inf(-1)
	minC := math.Inf(1)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := corr.At(i, j)
			sum += c
			count++
			maxC = math.Max(maxC, c)
			minC = math.Min(minC, c)
		}
	}

	avg := sum / float64(count)
	return CorrelationSummary{
		AverageCorrelation:   avg,
		MaxCorrelation:       maxC,
		MinCorrelation:       minC,
		DiversificationRatio: 1 - avg,
	}
}
