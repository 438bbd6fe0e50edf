package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// RecentVolatility returns the annualized population standard deviation of
// the last window returns, using talib's rolling StdDev. The window shrinks
// to the series length when the series is shorter. Returns ok=false when
// fewer than two observations are available.
func RecentVolatility(returns []float64, window int) (vol float64, used int, ok bool) {
	if window > len(returns) {
		window = len(returns)
	}
	if window < 2 {
		return 0, 0, false
	}

	rolling := talib.StdDev(returns, window, 1.0)
	last := rolling[len(rolling)-1]
	if math.IsNaN(last) {
		return 0, window, false
	}

	return last * math.Sqrt(TradingDaysPerYear), window, true
}
