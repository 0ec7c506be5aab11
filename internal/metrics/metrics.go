// Package metrics defines the Prometheus collectors for carpoold.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all carpoold collectors. Counters go up on each service
// invocation; histograms measure LLM and HTTP latency.
type Metrics struct {
	// IntentTotal counts classified intents by type ("request", "offer").
	IntentTotal *prometheus.CounterVec

	// ExtractBatches counts processed extraction batches by outcome
	// ("ok", "fallback", "error").
	ExtractBatches *prometheus.CounterVec

	// MatchesFound counts matches by type ("exact", "exact_route", "partial_route").
	MatchesFound *prometheus.CounterVec

	// LLMDuration measures backend call latency by operation.
	LLMDuration *prometheus.HistogramVec

	// HTTPRequests counts HTTP requests by method, endpoint and status.
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration measures HTTP request latency by method and endpoint.
	HTTPDuration *prometheus.HistogramVec
}

// New registers all carpoold collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		IntentTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carpoold_intent_total",
			Help: "Total intents classified, labeled by intent type.",
		}, []string{"intent_type"}),

		ExtractBatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carpoold_extract_batches_total",
			Help: "Total extraction batches processed, labeled by outcome.",
		}, []string{"status"}),

		MatchesFound: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carpoold_matches_found_total",
			Help: "Total request/offer matches found, labeled by match type.",
		}, []string{"type"}),

		LLMDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carpoold_llm_duration_seconds",
			Help:    "Time taken for LLM operations.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carpoold_http_requests_total",
			Help: "Total HTTP requests, labeled by method, endpoint and status code.",
		}, []string{"method", "endpoint", "status"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carpoold_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds, labeled by method and endpoint.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
		}, []string{"method", "endpoint"}),
	}
}

// NewTesting returns metrics bound to a throwaway registry.
func NewTesting() *Metrics {
	return New(prometheus.NewRegistry())
}
