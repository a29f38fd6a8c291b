package metrics

import (
	"sync"
	"time"

	"mercator-hq/quill/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// maxLabelSets bounds the number of distinct provider/model pairs tracked.
const maxLabelSets = 1000

// overflowModel replaces the model label once maxLabelSets is reached.
const overflowModel = "other"

// Collector owns the private Prometheus registry and every metric family
// recorded by the service. A nil *Collector is valid and records nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	generation *GenerationMetrics
	provider   *ProviderMetrics
	http       *HTTPMetrics
	storage    *StorageMetrics

	models *CardinalityLimiter
}

// NewCollector creates a collector. A nil registry gets a fresh private
// registry; the process-wide default registry is never used.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = config.DefaultRequestDurationBuckets
	}

	return &Collector{
		config:     cfg,
		registry:   registry,
		generation: NewGenerationMetrics(cfg, registry),
		provider:   NewProviderMetrics(cfg, registry),
		http:       NewHTTPMetrics(cfg, registry),
		storage:    NewStorageMetrics(cfg, registry),
		models:     NewCardinalityLimiter(maxLabelSets),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

func (c *Collector) model(provider, model string) string {
	if !c.models.Allow(provider + "/" + model) {
		return overflowModel
	}
	return model
}

// RecordGeneration records a finished generation request.
//
// status is one of "success", "invalid", "provider_error",
// "recovery_failed" or "storage_error".
func (c *Collector) RecordGeneration(provider, model, status string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.generation.RecordGeneration(provider, c.model(provider, model), status, duration)
}

// RecordRecovery records a recovery outcome: "strict", "salvaged" or
// "failed".
func (c *Collector) RecordRecovery(path string) {
	if !c.enabled() {
		return
	}
	c.generation.RecordRecovery(path)
}

// RecordSignature records a request signature computed for service.
func (c *Collector) RecordSignature(service string) {
	if !c.enabled() {
		return
	}
	c.generation.RecordSignature(service)
}

// RecordProviderLatency records a provider call latency.
func (c *Collector) RecordProviderLatency(provider, model string, latency time.Duration) {
	if !c.enabled() {
		return
	}
	c.provider.RecordLatency(provider, c.model(provider, model), latency.Seconds())
}

// RecordProviderError records a provider error by type.
func (c *Collector) RecordProviderError(provider, errorType string) {
	if !c.enabled() {
		return
	}
	c.provider.RecordError(provider, errorType)
}

// UpdateProviderHealth sets the provider health gauge.
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	if !c.enabled() {
		return
	}
	c.provider.UpdateHealth(provider, healthy)
}

// RecordHTTPRequest records a served API request.
func (c *Collector) RecordHTTPRequest(method, route string, code int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.http.Record(method, route, statusCode(code), duration)
}

// HTTPInFlight returns the in-flight gauge, or nil when metrics are off.
func (c *Collector) HTTPInFlight() prometheus.Gauge {
	if !c.enabled() {
		return nil
	}
	return c.http.inFlight
}

// RecordStorageOperation records a storage operation outcome.
func (c *Collector) RecordStorageOperation(operation string, err error) {
	if !c.enabled() {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.storage.RecordOperation(operation, status)
}

// RecordPruned records records removed by retention.
func (c *Collector) RecordPruned(reason string, n int64) {
	if !c.enabled() {
		return
	}
	c.storage.RecordPruned(reason, n)
}

// Registry returns the private registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func statusCode(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// CardinalityLimiter caps the number of distinct label sets admitted.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting at most maxCardinality
// distinct label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already known or still fits under the
// limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	_, exists := cl.current[labelSet]
	cl.mu.RUnlock()
	if exists {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the number of admitted label sets.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
