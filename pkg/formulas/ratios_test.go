package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDownsideDeviation(t *testing.T) {
	returns := []float64{-0.01, -0.03, 0.02, 0.05}
	want := math.Sqrt(0.0002) * math.Sqrt(252)
	assert.InDelta(t, want, DownsideDeviation(returns), 1e-12)
}

func TestDownsideDeviation_NotEnoughLosses(t *testing.T) {
	assert.Equal(t, 0.0, DownsideDeviation([]float64{0.01, 0.02}))
	assert.Equal(t, 0.0, DownsideDeviation([]float64{-0.01, 0.02}))
}

func TestRatios_ZeroDenominators(t *testing.T) {
	assert.Equal(t, 0.0, SharpeRatio(12, 0))
	assert.Equal(t, 0.0, SortinoRatio(12, 0))
	assert.Equal(t, 0.0, CalmarRatio(12, 0))
}

func TestCalmarRatio_UsesDrawdownMagnitude(t *testing.T) {
	assert.InDelta(t, 2.0, CalmarRatio(40, -20), 1e-12)
	assert.InDelta(t, -0.5, CalmarRatio(-10, -20), 1e-12)
}
