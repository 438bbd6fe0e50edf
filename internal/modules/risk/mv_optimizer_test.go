package risk

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func twoAssetOptimizer(t *testing.T) *MVOptimizer {
	t.Helper()
	mu := []float64{0.12, 0.08}
	sigma := mat.NewSymDense(2, []float64{
		0.04, 0.01,
		0.01, 0.03,
	})
	opt, err := NewMVOptimizer(mu, sigma, zerolog.Nop())
	require.NoError(t, err)
	return opt
}

func assertOnSimplex(t *testing.T, w []float64) {
	t.Helper()
	sum := 0.0
	for _, v := range w {
		assert.GreaterOrEqual(t, v, 0.0, "weights should be non-negative")
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "weights should sum to 1")
}

func TestMVOptimizer_MinVolatility(t *testing.T) {
	opt := twoAssetOptimizer(t)

	alloc, err := opt.MinVolatility()
	require.NoError(t, err)
	assertOnSimplex(t, alloc.Weights)

	// Closed form: w_A = (σ²_B - σ_AB) / (σ²_A + σ²_B - 2σ_AB) = 0.4
	assert.InDelta(t, 0.4, alloc.Weights[0], 1e-3)
	assert.InDelta(t, 0.6, alloc.Weights[1], 1e-3)
	assert.InDelta(t, math.Sqrt(0.022), alloc.Risk, 1e-4)
	assert.InDelta(t, 0.096, alloc.Return, 1e-4)
}

func TestMVOptimizer_MaxSharpe(t *testing.T) {
	opt := twoAssetOptimizer(t)

	alloc, err := opt.MaxSharpe()
	require.NoError(t, err)
	assertOnSimplex(t, alloc.Weights)

	// Tangency portfolio ∝ Σ⁻¹μ = (0.0028, 0.0020)
	assert.InDelta(t, 0.7/1.2, alloc.Weights[0], 5e-3)

	// No other mix does better
	for _, wa := range []float64{0, 0.25, 0.4, 0.5, 0.75, 1} {
		other := opt.Evaluate([]float64{wa, 1 - wa})
		assert.GreaterOrEqual(t, alloc.Sharpe()+1e-9, other.Sharpe())
	}
}

func TestMVOptimizer_EfficientReturn(t *testing.T) {
	opt := twoAssetOptimizer(t)

	alloc, err := opt.EfficientReturn(0.10)
	require.NoError(t, err)
	assertOnSimplex(t, alloc.Weights)

	assert.InDelta(t, 0.10, alloc.Return, 1e-4)
	assert.InDelta(t, 0.5, alloc.Weights[0], 1e-3)
}

func TestMVOptimizer_EfficientReturnInfeasible(t *testing.T) {
	opt := twoAssetOptimizer(t)

	_, err := opt.EfficientReturn(0.20)
	assert.ErrorIs(t, err, ErrOptimizerInfeasible)

	_, err = opt.EfficientReturn(0.01)
	assert.ErrorIs(t, err, ErrOptimizerInfeasible)
}

func TestMVOptimizer_SingleAsset(t *testing.T) {
	opt, err := NewMVOptimizer([]float64{0.2}, mat.NewSymDense(1, []float64{0.09}), zerolog.Nop())
	require.NoError(t, err)

	alloc, err := opt.MinVolatility()
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, alloc.Weights)
	assert.InDelta(t, 0.3, alloc.Risk, 1e-12)
}

func TestNewMVOptimizer_DimensionMismatch(t *testing.T) {
	_, err := NewMVOptimizer([]float64{0.1, 0.2}, mat.NewSymDense(3, nil), zerolog.Nop())
	assert.Error(t, err)

	_, err = NewMVOptimizer(nil, mat.NewSymDense(1, nil), zerolog.Nop())
	assert.ErrorIs(t, err, ErrInsufficientAssets)
}

func TestSimplexWeights(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0.2, 0.8}, simplexWeights([]float64{1, -2}), 1e-12)
	assert.Equal(t, []float64{0.5, 0.5}, simplexWeights([]float64{0, 0}))
}
