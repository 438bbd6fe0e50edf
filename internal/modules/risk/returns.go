package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/esfolk/DefiHedge/internal/domain"
	"github.com/esfolk/DefiHedge/internal/modules/prices"
)

// MinReturnObservations is the fewest return rows an analysis accepts
const MinReturnObservations = 2

// ReturnSeries holds simple daily returns, one column per asset.
type ReturnSeries struct {
	Assets  []string
	Returns *mat.Dense // rows = days, cols = Assets
}

// BuildReturns converts an aligned close table into simple daily returns.
// The first date has no predecessor and is dropped.
func BuildReturns(table *prices.Table) (*ReturnSeries, error) {
	if table == nil || len(table.Symbols) == 0 {
		return nil, fmt.Errorf("%w: empty price table", ErrDataUnavailable)
	}

	rows := table.Rows() - 1
	if rows < MinReturnObservations {
		return nil, fmt.Errorf("%w: %d aligned price days, need at least %d",
			ErrDataUnavailable, table.Rows(), MinReturnObservations+1)
	}

	cols := len(table.Symbols)
	returns := mat.NewDense(rows, cols, nil)
	for i := 1; i <= rows; i++ {
		prev, cur := table.Closes[i-1], table.Closes[i]
		for j := 0; j < cols; j++ {
			returns.Set(i-1, j, (cur[j]-prev[j])/prev[j])
		}
	}

	assets := make([]string, cols)
	copy(assets, table.Symbols)

	return &ReturnSeries{Assets: assets, Returns: returns}, nil
}

// Len returns the number of return rows
func (r *ReturnSeries) Len() int {
	rows, _ := r.Returns.Dims()
	return rows
}

// NumAssets returns the number of columns
func (r *ReturnSeries) NumAssets() int {
	return len(r.Assets)
}

// Weights are portfolio fractions aligned with a ReturnSeries' Assets.
type Weights struct {
	Assets []string
	Values []float64
}

// Vec returns the weights as a gonum vector
func (w *Weights) Vec() *mat.VecDense {
	return mat.NewVecDense(len(w.Values), append([]float64(nil), w.Values...))
}

// Of returns the weight of an asset, zero when absent
func (w *Weights) Of(asset string) float64 {
	for i, a := range w.Assets {
		if a == asset {
			return w.Values[i]
		}
	}
	return 0
}

// NormalizeWeights turns USD holdings into fractions over the assets present
// in the return series. Holdings without return data are ignored and do not
// count towards the total.
func NormalizeWeights(holdings domain.Holdings, assets []string) (*Weights, error) {
	values := make([]float64, len(assets))
	total := 0.0
	for i, asset := range assets {
		v, ok := holdings[asset]
		if !ok || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values[i] = v
		total += v
	}

	if total <= 0 {
		return nil, fmt.Errorf("%w: none of the %d holdings has return data", ErrNoWeights, len(holdings))
	}

	for i := range values {
		values[i] /= total
	}

	return &Weights{Assets: append([]string(nil), assets...), Values: values}, nil
}

// PortfolioReturns returns the weighted daily portfolio return series R·w
func PortfolioReturns(r *ReturnSeries, w *Weights) []float64 {
	var pr mat.VecDense
	pr.MulVec(r.Returns, w.Vec())
	return pr.RawVector().Data
}
