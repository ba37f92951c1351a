package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs every request served by next, tagging it with the
// caller's request id or a fresh one.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)

		entry := logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     lrw.statusCode,
			"latency":    time.Since(start).String(),
		})
		if lrw.statusCode >= 400 {
			entry.Warn("Request completed with error")
			return
		}
		entry.Info("Request completed")
	})
}

// LoggingTransport is an http.RoundTripper that stamps outgoing requests
// with a request id and logs each round trip at debug level.
type LoggingTransport struct {
	Base   http.RoundTripper
	Logger *logrus.Logger
}

func NewLoggingTransport(base http.RoundTripper, logger *logrus.Logger) *LoggingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LoggingTransport{Base: base, Logger: logger}
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	// RoundTrip must not modify the caller's request.
	req = req.Clone(req.Context())
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
		req.Header.Set(RequestIDHeader, requestID)
	}

	entry := t.Logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"method":     req.Method,
		"url":        req.URL.String(),
	})

	resp, err := t.Base.RoundTrip(req)
	if err != nil {
		entry.WithError(err).WithField("latency", time.Since(start).String()).Debug("Request failed")
		return nil, err
	}

	entry.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"latency": time.Since(start).String(),
	}).Debug("Request completed")
	return resp, nil
}
