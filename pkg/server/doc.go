// Package server runs the Quill HTTP API.
//
// The server owns only the listener lifecycle. Routing and middleware are
// built by package api and passed in as a handler:
//
//	handler := api.NewRouter(api.Options{...})
//	srv := server.NewServer(&cfg.Server, handler, logger)
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start blocks until ctx is cancelled. Shutdown then stops accepting
// connections and waits for in-flight requests up to
// server.shutdown_timeout. Generation calls can run for a long time, so
// the timeout should be at least as long as the slowest expected provider
// round trip.
//
// TLS is not terminated here; run Quill behind a proxy that does.
package server
