// Package health aggregates readiness checks for the /ready probe.
//
// Components register a CheckFunc under a name; CheckReadiness runs all of
// them concurrently, each bounded by the checker's timeout, and reports
// "ready" only when every check returned nil:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("storage", func(ctx context.Context) error {
//	    _, err := store.Count(ctx, nil)
//	    return err
//	})
//	mux.Handle("GET /ready", checker.ReadinessHandler())
//
// Liveness is not a check: a process that can answer /health is alive.
package health
