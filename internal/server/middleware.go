// internal/server/middleware.go
package server

import (
	"net/http"
	"strconv"
	"time"

	"evaldash/internal/common/observability"
)

// statusWriter captures the response code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Instrument records a request count and latency for every call served by
// next. The operation label is the method plus path pattern so cardinality
// stays bounded.
func Instrument(obs *observability.Observability, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		// The mux fills in r.Pattern during routing; unmatched requests
		// fall back to the raw path.
		operation := r.Pattern
		if operation == "" {
			operation = r.Method + " " + r.URL.Path
		}
		obs.RecordRequest(r.Context(), operation, strconv.Itoa(sw.status))
		obs.RecordDuration(r.Context(), operation, time.Since(start))
	})
}
