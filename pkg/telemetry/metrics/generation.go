package metrics

import (
	"time"

	"mercator-hq/quill/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// GenerationMetrics tracks generation requests and the recovery of their
// model output.
//
// Metrics:
//   - quill_generation_requests_total: requests by provider, model, status
//   - quill_generation_duration_seconds: end-to-end generation duration
//   - quill_recovery_total: recovery outcomes by path (strict, salvaged, failed)
//   - quill_signatures_total: request signatures computed by service
type GenerationMetrics struct {
	requestsTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	recoveries    *prometheus.CounterVec
	signatures    *prometheus.CounterVec
}

// NewGenerationMetrics creates and registers generation metrics.
func NewGenerationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GenerationMetrics {
	gm := &GenerationMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "generation_requests_total",
				Help:      "Total number of generation requests processed",
			},
			[]string{"provider", "model", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "generation_duration_seconds",
				Help:      "Duration of generation requests in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider", "model"},
		),
		recoveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "recovery_total",
				Help:      "Model output recovery outcomes by path",
			},
			[]string{"path"},
		),
		signatures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "signatures_total",
				Help:      "Total number of request signatures computed",
			},
			[]string{"service"},
		),
	}

	registry.MustRegister(gm.requestsTotal, gm.duration, gm.recoveries, gm.signatures)

	return gm
}

// RecordGeneration records a completed generation request.
func (gm *GenerationMetrics) RecordGeneration(provider, model, status string, duration time.Duration) {
	gm.requestsTotal.WithLabelValues(provider, model, status).Inc()
	gm.duration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// RecordRecovery records the path that recovered (or failed to recover) a
// model reply.
func (gm *GenerationMetrics) RecordRecovery(path string) {
	gm.recoveries.WithLabelValues(path).Inc()
}

// RecordSignature records a computed request signature.
func (gm *GenerationMetrics) RecordSignature(service string) {
	gm.signatures.WithLabelValues(service).Inc()
}
