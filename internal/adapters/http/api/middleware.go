package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/arena/pkg/metrics"
)

// errorTypes labels error responses in metrics. Statuses not listed fall back
// to client_error or server_error by class.
var errorTypes = map[int]string{
	http.StatusBadRequest:            "bad_request",
	http.StatusNotFound:              "not_found",
	http.StatusRequestEntityTooLarge: "too_large",
	http.StatusTooManyRequests:       "backpressure",
	http.StatusServiceUnavailable:    "unavailable",
}

// MetricsMiddleware records request count, latency and error class for the
// named endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(time.Since(start).Milliseconds()))

		if rec.status >= http.StatusBadRequest {
			kind := errorType(rec.status)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, kind)
			metrics.RecordErrorByComponent("http", kind)
		}
	}
}

func errorType(status int) string {
	if kind, ok := errorTypes[status]; ok {
		return kind
	}
	if status >= http.StatusInternalServerError {
		return "server_error"
	}
	return "client_error"
}

// statusRecorder remembers the first status written.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *statusRecorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
