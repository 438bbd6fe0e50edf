package risk

import (
	"errors"

	"github.com/esfolk/DefiHedge/internal/modules/prices"
)

var (
	// ErrDataUnavailable means no usable price history could be assembled.
	// It aborts the whole analysis.
	ErrDataUnavailable = prices.ErrDataUnavailable
	// ErrInvalidLookback means the lookback is outside the accepted range.
	ErrInvalidLookback = prices.ErrInvalidLookback
	// ErrInvalidHoldings means the holdings are empty or contain a non-positive value.
	ErrInvalidHoldings = errors.New("invalid holdings")

	// ErrInsufficientAssets means fewer than two assets have return data.
	ErrInsufficientAssets = errors.New("insufficient assets")
	// ErrDegenerateVariance means the portfolio variance is zero or not finite.
	ErrDegenerateVariance = errors.New("degenerate portfolio variance")
	// ErrOptimizerInfeasible means the optimizer found no solution for a problem.
	ErrOptimizerInfeasible = errors.New("optimizer infeasible")
	// ErrNoWeights means no holding overlaps the assets with return data.
	ErrNoWeights = errors.New("no portfolio weights")
	// ErrInternal wraps unexpected failures (including recovered panics) inside an engine.
	ErrInternal = errors.New("internal analysis error")
)

// ErrorCode maps an analysis error to a stable machine-readable code
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrInvalidLookback):
		return "invalid_lookback"
	case errors.Is(err, ErrInvalidHoldings):
		return "invalid_holdings"
	case errors.Is(err, ErrInsufficientAssets):
		return "insufficient_assets"
	case errors.Is(err, ErrDegenerateVariance):
		return "degenerate_variance"
	case errors.Is(err, ErrOptimizerInfeasible):
		return "optimizer_infeasible"
	case errors.Is(err, ErrNoWeights):
		return "no_weights"
	default:
		return "internal"
	}
}
