package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jenkass/reddit-parser/internal/logger"
	"github.com/jenkass/reddit-parser/internal/model"
)

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-ID"

// Logging is an HTTP middleware that tags requests with an id and logs them.
type Logging struct {
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(contextManager model.ContextManager, logger *logger.Logger) *Logging {
	return &Logging{
		contextManager: contextManager,
		logger:         logger,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Handle logs method, path, duration and status for each request.
func (l *Logging) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New()
		log := l.logger.With("request_id", requestID.String())

		log.Info("HTTP request started",
			"method", r.Method,
			"path", r.URL.Path,
			"start_time", start.Format(time.RFC3339))

		w.Header().Set(RequestIDHeader, requestID.String())
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(l.contextManager.SetRequestIDToContext(r.Context(), requestID)))

		log.Info("HTTP request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
			"status", rec.status)

		if rec.status >= http.StatusBadRequest {
			log.Warn("HTTP request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status)
		}
	})
}
