// FilePath: api/middleware/api.middleware.logging.go
package middleware

import (
	"net/http"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// RequestLogger logs every request with method, path, status and duration.
type RequestLogger struct{}

func NewRequestLogger() *RequestLogger {
	return &RequestLogger{}
}

// statusRecorder captures the status code written by the handler chain.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Log wraps a handler, tags the response with a request ID and emits one
// line per request.
func (l *RequestLogger) Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := nuts.NID("req", 12)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		rec.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(rec, r)

		nuts.L.Infof("[API] %s %s %s -> %d (%s)", requestID, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
