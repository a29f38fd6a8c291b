// Package middleware holds the HTTP middleware of the generation API.
//
// The server chains them outermost first:
//
//	Recovery -> Logging -> RequestID -> CORS -> APIKeyAuth -> Timeout -> mux
//
// Metrics wraps individual routes so the route label is the mux pattern.
package middleware
