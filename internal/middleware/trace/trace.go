// Package trace assigns request ids and logs every finished request.
package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	applog "budgetbook/internal/log"

	"github.com/google/uuid"
)

type contextKey struct{}

// HeaderRequestID is read from the request and echoed on the response.
const HeaderRequestID = "X-Request-ID"

const maxIncomingIDLen = 128

type Middleware struct {
	logger    *applog.Logger
	extractIP func(*http.Request) string
	metrics   Metrics
}

type Metrics struct {
	TotalRequests int64
	ServerErrors  int64
}

func NewMiddleware(logger *applog.Logger, extractIP func(*http.Request) string) *Middleware {
	return &Middleware{logger: logger, extractIP: extractIP}
}

// Middleware tags the request with an id, stores a request-scoped logger in
// its context and logs the outcome.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	structured := applog.NewStructuredLogger(m.logger)

	logged := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&m.metrics.TotalRequests, 1)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.statusCode >= 500 {
			atomic.AddInt64(&m.metrics.ServerErrors, 1)
		}
		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}
		structured.LogHTTPEnd(r.Context(), r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
	withLogger := applog.Middleware(m.logger)(applog.RequestIDMiddleware(requestIDOf)(logged))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" || len(requestID) > maxIncomingIDLen {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)
		ctx := context.WithValue(r.Context(), contextKey{}, requestID)
		withLogger.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDOf(r *http.Request) string {
	return GetRequestID(r.Context())
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

// GetRequestID returns the id assigned by Middleware, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests: atomic.LoadInt64(&m.metrics.TotalRequests),
		ServerErrors:  atomic.LoadInt64(&m.metrics.ServerErrors),
	}
}
