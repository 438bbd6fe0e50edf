package formulas

// MaxDrawdownFromReturns compounds the returns into a cumulative growth curve
// and returns the deepest fall below its running peak as a non-positive
// fraction (-0.25 = 25% below peak). The curve starts at the first
// compounded value, so a loss on the very first day is not a drawdown.
func MaxDrawdownFromReturns(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	cumulative := 1.0
	peak := 0.0
	maxDrawdown := 0.0

	for i, r := range returns {
		cumulative *= 1 + r
		if i == 0 || cumulative > peak {
			peak = cumulative
		}
		if peak > 0 {
			drawdown := cumulative/peak - 1
			if drawdown < maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}
