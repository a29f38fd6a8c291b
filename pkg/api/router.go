package api

import (
	"net/http"

	"mercator-hq/quill/pkg/api/middleware"
	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/telemetry/health"
	"mercator-hq/quill/pkg/telemetry/metrics"
)

// Options wires the router.
type Options struct {
	Config    *config.Config
	Service   GenerationService
	Providers ProviderStatus
	Collector *metrics.Collector
	Validator *middleware.APIKeyValidator

	// Checker backs /ready. Nil builds one with a providers check.
	Checker *health.Checker

	// Version, when set, is served at /version.
	Version *health.VersionInfo
}

// NewRouter builds the HTTP handler:
//
//	POST /v1/generations
//	GET  /v1/generations
//	GET  /v1/generations/{id}
//	GET  /health
//	GET  /ready
//	GET  /version
//	GET  {metrics path}
//
// Authentication and the request timeout apply to /v1 routes only, so
// probes and scrapes work without a key.
func NewRouter(opts Options) http.Handler {
	cfg := opts.Config
	validator := opts.Validator
	if validator == nil {
		validator = middleware.NewAPIKeyValidator(cfg.Security.Authentication.Keys)
	}

	auth := middleware.APIKeyAuth(cfg.Security.Authentication, validator)
	timeout := middleware.Timeout(cfg.Server.RequestTimeout)

	mux := http.NewServeMux()
	route := func(pattern string, h http.Handler, protected bool) {
		if protected {
			h = auth(timeout(h))
		}
		mux.Handle(pattern, middleware.Metrics(opts.Collector, pattern)(h))
	}

	gens := NewGenerationsHandler(opts.Service, cfg.Server.MaxBodyBytes)
	route("POST /v1/generations", http.HandlerFunc(gens.Create), true)
	route("GET /v1/generations", http.HandlerFunc(gens.List), true)
	route("GET /v1/generations/{id}", http.HandlerFunc(gens.Get), true)
	route("GET /health", http.HandlerFunc(Health), false)
	checker := opts.Checker
	if checker == nil {
		checker = health.New(0)
		if opts.Providers != nil {
			checker.RegisterCheck("providers", ProvidersCheck(opts.Providers))
		}
	}
	route("GET /ready", checker.ReadinessHandler(), false)

	if v := opts.Version; v != nil {
		route("GET /version", health.VersionHandler(v.Version, v.Commit, v.BuildTime), false)
	}

	if metricsCfg := cfg.Telemetry.Metrics; metricsCfg.Enabled && opts.Collector != nil {
		route("GET "+metricsCfg.Path, opts.Collector.Handler(), false)
	}

	var handler http.Handler = mux
	handler = middleware.CORS(cfg.Server.CORS)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Logging(handler)
	handler = middleware.Recovery(handler)

	return handler
}
