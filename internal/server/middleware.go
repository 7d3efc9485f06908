package server

import (
	"net/http"
	"time"

	"vatfiler/pkg/logging"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// logRequests logs one line per request. Query strings are left out since
// the callback carries the authorization code.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start).Round(time.Millisecond)

		switch {
		case status >= http.StatusInternalServerError:
			logging.Warn("HTTP", "%s %s -> %d (%s)", r.Method, r.URL.Path, status, duration)
		case r.URL.Path == "/health":
			logging.Debug("HTTP", "%s %s -> %d (%s)", r.Method, r.URL.Path, status, duration)
		default:
			logging.Info("HTTP", "%s %s -> %d %dB (%s)", r.Method, r.URL.Path, status, rec.bytes, duration)
		}
	})
}
