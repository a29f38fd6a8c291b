package middleware

import (
	"net/http"
	"time"

	"mercator-hq/quill/pkg/telemetry/metrics"
)

// Metrics records request count, duration and in-flight requests for one
// route. route is the mux pattern so label cardinality stays bounded.
func Metrics(collector *metrics.Collector, route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if inFlight := collector.HTTPInFlight(); inFlight != nil {
				inFlight.Inc()
				defer inFlight.Dec()
			}

			start := time.Now()
			rw := newStatusRecorder(w)
			next.ServeHTTP(rw, r)

			collector.RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
		})
	}
}
