// Package trace tags outgoing backend requests with a request ID and logs
// one line per completed round trip.
package trace

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"invoicer/internal/log"
)

// HeaderRequestID is sent with every request so backend logs can be correlated.
const HeaderRequestID = "X-Request-ID"

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
)

// Transport is an http.RoundTripper that adds tracing to a base transport.
type Transport struct {
	base    http.RoundTripper
	logger  *log.Logger
	metrics Metrics
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests  int64
	FailedRequests int64
	// LastDuration is the duration of the most recent round trip, in microseconds.
	LastDuration int64
}

// NewTransport wraps base. A nil base means http.DefaultTransport.
func NewTransport(base http.RoundTripper, logger *log.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Transport{base: base, logger: logger.WithComponent(log.ComponentHTTP)}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	requestID := GetRequestID(req.Context())
	if requestID == "" {
		requestID = GenerateRequestID()
	}
	// RoundTrip must not modify the caller's request.
	req = req.Clone(WithRequestID(req.Context(), requestID))
	req.Header.Set(HeaderRequestID, requestID)

	atomic.AddInt64(&t.metrics.TotalRequests, 1)
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)
	atomic.StoreInt64(&t.metrics.LastDuration, duration.Microseconds())

	fields := log.NewFields().
		WithRequestID(requestID).
		WithHTTPRequest(req.Method, req.URL.Path)
	if err != nil {
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
		t.logger.WarnContext(req.Context(), "backend request failed", fields.WithError(err).ToSlice()...)
		return nil, err
	}

	level := slog.LevelDebug
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		level = slog.LevelInfo
	} else if resp.StatusCode >= 500 {
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
		level = slog.LevelWarn
	}
	fields = fields.WithHTTPResponse(resp.StatusCode, duration.Milliseconds(), resp.StatusCode < 400)
	t.logger.LogLevel(req.Context(), level, "backend request completed", fields.ToSlice()...)
	return resp, nil
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return uuid.NewString()
}

// WithRequestID stores id in ctx so that retries of one logical call share it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns current metrics
func (t *Transport) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:  atomic.LoadInt64(&t.metrics.TotalRequests),
		FailedRequests: atomic.LoadInt64(&t.metrics.FailedRequests),
		LastDuration:   atomic.LoadInt64(&t.metrics.LastDuration),
	}
}
