package metrics

import "github.com/prometheus/client_golang/prometheus"

// Matching engine Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "propdex",
			Name:      "search_duration_seconds",
			Help:      "End-to-end matching pipeline duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"outcome"}, // "matched" / "relaxed" / "empty" / "error"
	)

	RelaxationStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propdex",
			Name:      "relaxation_steps_total",
			Help:      "Relaxation steps that produced results",
		},
		[]string{"field"}, // "budget" / "radius"
	)

	UpsellResultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "propdex",
			Name:      "upsell_results_total",
			Help:      "Better-value additions surfaced in result sets",
		},
	)

	GeocodeCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propdex",
			Name:      "geocode_cache_total",
			Help:      "Geocode cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	CatalogSnapshotRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propdex",
			Name:      "catalog_snapshot_refresh_total",
			Help:      "Catalog snapshot cache refreshes",
		},
		[]string{"status"}, // "ok" / "error"
	)
)

var matchingRegistered bool

// RegisterMatchingMetrics registers engine metrics. Must be called once
// from main.
func RegisterMatchingMetrics() {
	if matchingRegistered {
		return
	}
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(RelaxationStepsTotal)
	prometheus.MustRegister(UpsellResultsTotal)
	prometheus.MustRegister(GeocodeCacheTotal)
	prometheus.MustRegister(CatalogSnapshotRefreshTotal)
	matchingRegistered = true
}
