package metrics

import (
	"mercator-hq/quill/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics tracks generation record storage and retention.
type StorageMetrics struct {
	operations *prometheus.CounterVec
	pruned     *prometheus.CounterVec
}

// NewStorageMetrics creates and registers storage metrics.
func NewStorageMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *StorageMetrics {
	sm := &StorageMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "storage_operations_total",
				Help:      "Total number of storage operations by outcome",
			},
			[]string{"operation", "status"},
		),
		pruned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "records_pruned_total",
				Help:      "Total number of generation records removed by retention",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(sm.operations, sm.pruned)

	return sm
}

// RecordOperation records a storage operation outcome.
func (sm *StorageMetrics) RecordOperation(operation, status string) {
	sm.operations.WithLabelValues(operation, status).Inc()
}

// RecordPruned adds n records removed for reason ("age" or "count").
func (sm *StorageMetrics) RecordPruned(reason string, n int64) {
	if n <= 0 {
		return
	}
	sm.pruned.WithLabelValues(reason).Add(float64(n))
}
