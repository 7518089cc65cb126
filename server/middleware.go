package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// statusRecorder captures the status code written by the inner
// handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap keeps http.ResponseController features (flush, hijack)
// reachable through the wrapper.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// requestLogger tags every request with a correlation id, exposes it as
// X-Request-Id and logs the outcome.
func requestLogger(logger *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		w.Header().Set("X-Request-Id", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		logger.WithFields(logrus.Fields{
			"requestId": requestID,
			"method":    r.Method,
			"host":      r.Host,
			"uri":       r.RequestURI,
			"status":    recorder.status,
			"duration":  time.Since(start).String(),
		}).Info("Request handled")
	})
}
