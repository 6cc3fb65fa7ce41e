package metrics

import "github.com/prometheus/client_golang/prometheus"

// AI provider Prometheus metrics.
var (
	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "govdocs",
			Name:      "ai_requests_total",
			Help:      "Total number of embedding and generation requests",
		},
		[]string{"provider", "model", "op", "status"}, // op: embed / generate
	)

	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "govdocs",
			Name:      "ai_request_duration_seconds",
			Help:      "AI request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model", "op"},
	)

	AIRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "govdocs",
			Name:      "ai_retries_total",
			Help:      "Retries of transient AI failures",
		},
		[]string{"op"},
	)

	AITokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "govdocs",
			Name:      "ai_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "govdocs",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var aiMetricsRegistered bool

// RegisterAIMetrics registers Prometheus AI metrics. Must be called once from main.
func RegisterAIMetrics() {
	if aiMetricsRegistered {
		return
	}
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(AIRetriesTotal)
	prometheus.MustRegister(AITokensTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	aiMetricsRegistered = true
}
