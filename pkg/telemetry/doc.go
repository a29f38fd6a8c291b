// Package telemetry groups Quill's observability packages.
//
//   - logging: slog construction, request-scoped fields and redaction
//   - metrics: Prometheus collectors on a private registry
//   - health: readiness checks behind /ready
//
// Each subpackage is used directly; this package has no code.
package telemetry
