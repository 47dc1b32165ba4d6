package app

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// WithRequestLogging wraps a handler with per-request structured logging, a
// generated request id, and request metrics. Metrics may be nil.
func WithRequestLogging(next http.Handler, log *slog.Logger, metrics *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		lrw := &loggingResponseWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
		}

		next.ServeHTTP(lrw, r)

		elapsed := time.Since(start)
		log.Info("http.request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", lrw.status,
			"duration_ms", elapsed.Milliseconds(),
			"remote", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		if metrics != nil {
			metrics.observeRequest(r.Method, lrw.status, elapsed.Seconds())
			if endpoint, ok := authEndpoint(r.URL.Path); ok {
				metrics.observeAuth(endpoint, lrw.status)
			}
		}
	})
}

// authEndpoint maps /api/auth/* paths to a stable metric label.
func authEndpoint(path string) (string, bool) {
	const prefix = "/api/auth/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	switch rest {
	case "register", "login", "refresh", "logout", "me":
		return rest, true
	}
	return "", false
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingResponseWriter) Write(p []byte) (int, error) {
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

func (w *loggingResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *loggingResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
