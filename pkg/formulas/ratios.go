package formulas

import "math"

// DownsideDeviation is the sample standard deviation of the strictly negative
// returns, annualized. Fewer than two negative observations yield 0.
func DownsideDeviation(returns []float64) float64 {
	negatives := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	if len(negatives) < 2 {
		return 0
	}
	return StdDev(negatives) * math.Sqrt(TradingDaysPerYear)
}

// SharpeRatio divides an annual return by its annual volatility (risk-free
// rate 0). Both inputs must use the same units. Zero volatility yields 0.
func SharpeRatio(annualReturn, annualVolatility float64) float64 {
	return SafeRatio(annualReturn, annualVolatility)
}

// SortinoRatio divides an annual return by its annualized downside deviation.
func SortinoRatio(annualReturn, downsideDeviation float64) float64 {
	return SafeRatio(annualReturn, downsideDeviation)
}

// CalmarRatio divides an annual return by the magnitude of the maximum
// drawdown. A zero drawdown yields 0.
func CalmarRatio(annualReturn, maxDrawdown float64) float64 {
	return SafeRatio(annualReturn, math.Abs(maxDrawdown))
}
