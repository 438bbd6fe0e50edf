package testing

import (
	"math"
	"math/rand"
	"time"
)

// Days returns n consecutive UTC midnights ending at end (inclusive).
func Days(end time.Time, n int) []time.Time {
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	days := make([]time.Time, n)
	for i := 0; i < n; i++ {
		days[i] = end.AddDate(0, 0, i-n+1)
	}
	return days
}

// RandomWalk generates n positive closes following a geometric random walk
// with the given daily drift and volatility. The same seed always yields the
// same series.
func RandomWalk(seed int64, n int, start, drift, vol float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	closes := make([]float64, n)
	price := start
	for i := 0; i < n; i++ {
		if i > 0 {
			price *= math.Exp(drift + vol*rng.NormFloat64())
		}
		closes[i] = price
	}
	return closes
}

// Constant returns n identical closes, the shape of a pegged stablecoin.
func Constant(n int, value float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = value
	}
	return closes
}
