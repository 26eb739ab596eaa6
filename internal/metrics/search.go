package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchAdapterRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_adapter_requests_total",
			Help:      "Source adapter calls by outcome",
		},
		[]string{"source", "status"}, // ok / error / timeout / panic
	)

	SearchAdapterDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_adapter_duration_seconds",
			Help:      "Source adapter call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"source"},
	)

	SearchResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_results_total",
			Help:      "Items contributed by each source before ranking",
		},
		[]string{"source"},
	)

	SearchStreamEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_stream_events_total",
			Help:      "Progress events emitted by type",
		},
		[]string{"type"},
	)

	EnrichmentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_total",
			Help:      "Query enrichment outcomes",
		},
		[]string{"status"}, // ok / degraded
	)

	CatalogItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_items",
			Help:      "Last observed number of indexed catalog items",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search pipeline metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchAdapterRequestsTotal)
	prometheus.MustRegister(SearchAdapterDuration)
	prometheus.MustRegister(SearchResultsTotal)
	prometheus.MustRegister(SearchStreamEventsTotal)
	prometheus.MustRegister(EnrichmentTotal)
	prometheus.MustRegister(CatalogItems)
	searchMetricsRegistered = true
}
