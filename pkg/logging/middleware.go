package logging

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

var httpLogger = New("http")

// RequestIDMiddleware tags each request with an ID (taken from X-Request-ID or
// generated) and logs its outcome. Client errors log at warn, server errors
// at error. Event streams log when they open and close.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		r = r.WithContext(WithRequestID(r.Context(), requestID))
		w.Header().Set("X-Request-ID", requestID)

		log := httpLogger.With("requestID", requestID, "method", r.Method, "path", r.URL.Path)
		stream := strings.HasPrefix(r.URL.Path, "/api/subscribe/")
		if stream {
			log.Debug("Event stream opened", "remoteAddr", r.RemoteAddr)
		}

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(wrapped, r)
		elapsed := time.Since(start).Milliseconds()

		switch {
		case stream && wrapped.statusCode < 400:
			log.Debug("Event stream closed", "durationMs", elapsed)
		case wrapped.statusCode >= 500:
			log.Error("Request failed", "status", wrapped.statusCode, "durationMs", elapsed)
		case wrapped.statusCode >= 400:
			log.Warn("Request rejected", "status", wrapped.statusCode, "durationMs", elapsed)
		default:
			log.Debug("Request completed", "status", wrapped.statusCode, "durationMs", elapsed)
		}
	})
}

// responseWriter records the status code written by a handler
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher so event streams work through the wrapper
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
