// Package metrics defines Prometheus instrumentation for the chain engine,
// the provider handlers, and the prompt cache.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for model inference
// latencies, ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// ChainStepsTotal counts executed chain steps by provider, service
	// type, and outcome.
	ChainStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainflow_chain_steps_total",
			Help: "Chain steps executed",
		},
		[]string{"provider", "service", "status"},
	)

	// ChainStepDuration records per-step duration in seconds by provider
	// and service type.
	ChainStepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chainflow_chain_step_duration_seconds",
			Help:    "Chain step duration",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "service"},
	)

	// ProviderRequestsTotal counts HTTP requests to backend providers.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainflow_provider_requests_total",
			Help: "Provider requests",
		},
		[]string{"provider", "status"},
	)

	// PromptCacheHitsTotal counts prompt cache hits.
	PromptCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chainflow_prompt_cache_hits_total",
			Help: "Prompt cache hits",
		},
	)

	// PromptCacheMissesTotal counts prompt cache misses.
	PromptCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chainflow_prompt_cache_misses_total",
			Help: "Prompt cache misses",
		},
	)

	// PromptCacheEvictionsTotal counts prompt cache evictions by reason
	// (lru, expired, invalidated).
	PromptCacheEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainflow_prompt_cache_evictions_total",
			Help: "Prompt cache evictions",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		ChainStepsTotal,
		ChainStepDuration,
		ProviderRequestsTotal,
		PromptCacheHitsTotal,
		PromptCacheMissesTotal,
		PromptCacheEvictionsTotal,
	)
}
