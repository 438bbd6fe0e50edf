package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateCVaR(t *testing.T) {
	tests := []struct {
		name       string
		returns    []float64
		confidence float64
		want       float64
	}{
		{
			name:       "worst 5 percent of ten returns is one value",
			returns:    []float64{-0.10, -0.05, -0.02, 0.0, 0.02, 0.05, 0.10, 0.15, 0.20, 0.25},
			confidence: 0.95,
			want:       -0.10,
		},
		{
			name:       "tail of thirty returns averages two values",
			returns:    append([]float64{-0.08, -0.04}, make([]float64, 28)...),
			confidence: 0.95,
			want:       -0.06,
		},
		{
			name:       "single return",
			returns:    []float64{-0.10},
			confidence: 0.95,
			want:       -0.10,
		},
		{
			name:       "empty returns",
			returns:    []float64{},
			confidence: 0.95,
			want:       0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateCVaR(tt.returns, tt.confidence), 1e-12)
		})
	}
}
