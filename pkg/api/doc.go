// Package api exposes the generation service over HTTP.
//
// Routes:
//
//	POST /v1/generations       create a listing from {"prompt", "provider"?, "model"?}
//	GET  /v1/generations       list stored generations, newest first
//	GET  /v1/generations/{id}  fetch one generation
//	GET  /health               liveness
//	GET  /ready                readiness checks (providers, storage)
//	GET  /version              build information
//	GET  /metrics              Prometheus exposition
//
// Errors use a single envelope:
//
//	{"error": {"type": "recovery_failed", "message": "could not interpret AI output", "preview": "..."}}
//
// Model output that cannot be interpreted is answered with 422 and a
// bounded preview of the text.
package api
