package risk

import "github.com/prometheus/client_golang/prometheus"

var (
	analysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "defiguard_risk_analyses_total",
		Help: "Portfolio analyses by outcome code (ok or the fatal error code)",
	}, []string{"outcome"})

	analysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "defiguard_risk_analysis_duration_seconds",
		Help:    "Wall time of a full portfolio analysis including the price fetch",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	sectionFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "defiguard_risk_section_failures_total",
		Help: "Analysis sections that returned an error, by section and code",
	}, []string{"section", "code"})
)

// Collectors returns the package metrics for registration
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{analysesTotal, analysisDuration, sectionFailures}
}
