// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SuggestionsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_suggestions_generated_total",
			Help: "Total number of suggestions produced by the provider",
		},
		[]string{"source"},
	)

	SuggestionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "advisor_cache_hits_total",
			Help: "Total number of suggestion cache hits",
		},
	)

	QuotaRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "advisor_quota_rejections_total",
			Help: "Total number of generate calls rejected by the session quota",
		},
	)

	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_provider_errors_total",
			Help: "Total number of provider invocation failures",
		},
		[]string{"error_code"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "advisor_generation_duration_seconds",
			Help: "Duration of provider-backed suggestion generation in seconds",
		},
	)
)
