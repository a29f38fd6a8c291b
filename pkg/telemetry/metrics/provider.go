package metrics

import (
	"mercator-hq/quill/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks upstream model provider health and performance.
//
// Metrics:
//   - quill_provider_health: 1 when the provider is healthy, 0 otherwise
//   - quill_provider_latency_seconds: provider call latency
//   - quill_provider_errors_total: provider errors by type
//   - quill_provider_requests_total: calls to each provider/model
type ProviderMetrics struct {
	health   *prometheus.GaugeVec
	latency  *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	requests *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_health",
				Help:      "Provider health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_latency_seconds",
				Help:      "Provider API call latency in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider", "model"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_errors_total",
				Help:      "Total number of provider errors by type",
			},
			[]string{"provider", "error_type"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_requests_total",
				Help:      "Total number of calls made to each provider",
			},
			[]string{"provider", "model"},
		),
	}

	registry.MustRegister(pm.health, pm.latency, pm.errors, pm.requests)

	return pm
}

// UpdateHealth sets the health gauge for a provider.
func (pm *ProviderMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	pm.health.WithLabelValues(provider).Set(value)
}

// RecordLatency records a provider call and its latency in seconds.
func (pm *ProviderMetrics) RecordLatency(provider, model string, latencySeconds float64) {
	pm.requests.WithLabelValues(provider, model).Inc()
	pm.latency.WithLabelValues(provider, model).Observe(latencySeconds)
}

// RecordError records a provider error.
//
// Error types used by the generation service:
//   - "rate_limit"
//   - "timeout"
//   - "auth"
//   - "parse"
//   - "provider"
func (pm *ProviderMetrics) RecordError(provider, errorType string) {
	pm.errors.WithLabelValues(provider, errorType).Inc()
}
