package prices

import "github.com/prometheus/client_golang/prometheus"

var (
	fetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "defiguard_price_fetch_failures_total",
		Help: "Price history downloads that failed, by ticker",
	}, []string{"ticker"})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "defiguard_price_cache_lookups_total",
		Help: "Price cache lookups by result (hit, miss, stale)",
	}, []string{"result"})
)

// Collectors returns the package metrics for registration
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{fetchFailures, cacheLookups}
}
