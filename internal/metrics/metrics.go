package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts total HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adgate_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration tracks request latency
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adgate_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ActiveSessions tracks tenant sessions held in memory
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adgate_active_sessions",
			Help: "Number of tenant sessions held by the gateway",
		},
	)

	// SessionsExpired counts sessions dropped for inactivity
	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adgate_sessions_expired_total",
			Help: "Total number of sessions removed after the idle timeout",
		},
	)

	// ToolCalls tracks tool invocations by outcome
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adgate_tool_calls_total",
			Help: "Total number of tool calls",
		},
		[]string{"tool", "status"},
	)

	// ToolDuration tracks tool latency including upstream calls
	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adgate_tool_duration_seconds",
			Help:    "Tool call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"tool"},
	)

	// TokenFallbacks counts resource-token fallbacks by outcome
	TokenFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adgate_token_fallbacks_total",
			Help: "Total number of retries with a resource-scoped token",
		},
		[]string{"outcome"},
	)

	// UpstreamCalls counts calls to the advertising platform API
	UpstreamCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adgate_upstream_calls_total",
			Help: "Total number of upstream API calls",
		},
		[]string{"method", "status"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher for SSE support
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController and the websocket upgrader reach the
// underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware creates an HTTP middleware that records metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		route := routePattern(r)

		RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(duration)
	})
}

// routePattern labels a request by its chi route (e.g. "/call/{tenantID}")
// so tenant ids never become label values.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "other"
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetActiveSessions sets the session gauge
func SetActiveSessions(count int) {
	ActiveSessions.Set(float64(count))
}

// RecordSessionExpired counts one idle-timeout removal
func RecordSessionExpired() {
	SessionsExpired.Inc()
}

// RecordToolCall records a tool invocation
func RecordToolCall(tool, status string, duration time.Duration) {
	ToolCalls.WithLabelValues(tool, status).Inc()
	ToolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordTokenFallback records the outcome of a resource-token retry
func RecordTokenFallback(outcome string) {
	TokenFallbacks.WithLabelValues(outcome).Inc()
}

// RecordUpstreamCall records one upstream request; status is the HTTP status
// code, or "error" when no response was received.
func RecordUpstreamCall(method, status string) {
	UpstreamCalls.WithLabelValues(method, status).Inc()
}
