package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search cascade Prometheus metrics.
var (
	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "govdocs",
			Name:      "search_total",
			Help:      "Completed searches by the tier that answered",
		},
		[]string{"tier"}, // keyword / semantic / refined / not_found / error
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "govdocs",
			Name:      "search_duration_seconds",
			Help:      "End-to-end cascade duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"tier"},
	)

	SemanticSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "govdocs",
			Name:      "semantic_skipped_total",
			Help:      "Semantic candidates excluded before scoring",
		},
		[]string{"reason"}, // dimension_mismatch / zero_magnitude
	)

	CollectionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "govdocs",
			Name:      "collection_errors_total",
			Help:      "Per-collection store failures swallowed by a tier",
		},
		[]string{"tier", "collection"},
	)

	UndecodableDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "govdocs",
			Name:      "undecodable_documents_total",
			Help:      "Stored documents skipped because they could not be decoded",
		},
		[]string{"collection"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SemanticSkippedTotal)
	prometheus.MustRegister(CollectionErrorsTotal)
	prometheus.MustRegister(UndecodableDocumentsTotal)
	searchMetricsRegistered = true
}
