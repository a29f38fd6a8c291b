// Package metrics exposes Prometheus metrics for the quill service.
//
// All metric families live on a private registry owned by a Collector:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
//	collector.RecordGeneration("openai", "gpt-4o", "success", time.Second)
//	collector.RecordRecovery("salvaged")
//	collector.RecordSignature("bedrock")
//
// Families (namespace defaults to "quill"):
//
//   - generation_requests_total, generation_duration_seconds
//   - recovery_total by path
//   - signatures_total by service
//   - provider_health, provider_latency_seconds, provider_errors_total,
//     provider_requests_total
//   - http_requests_total, http_request_duration_seconds,
//     http_requests_in_flight
//   - storage_operations_total, records_pruned_total
//
// Model labels are capped by a CardinalityLimiter; label sets beyond the
// cap are folded into model="other".
package metrics
