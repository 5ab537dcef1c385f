package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/namelens/brandlens/internal/observability"
)

// statusRecorder captures the status code and body size written by the
// wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// staticEndpoints label requests that never reached a chi route, e.g. 404s
// and requests rejected before routing.
var staticEndpoints = map[string]string{
	"/":                "/",
	"/health":          "/health/*",
	"/health/live":     "/health/*",
	"/health/ready":    "/health/*",
	"/health/startup":  "/health/*",
	"/version":         "/version",
	"/metrics":         "/metrics",
	"/admin/signal":    "/admin/signal",
	"/api":             "/api/",
	"/api/":            "/api/",
	"/api/status":      "/api/status",
	"/api/evaluate":    "/api/evaluate",
	"/api/evaluations": "/api/evaluations",
}

// getEndpointPattern returns a low-cardinality label for the request: the
// matched chi route pattern when there is one, otherwise a fixed bucket.
// Evaluation ids never appear in the label.
func getEndpointPattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	path := r.URL.Path
	if endpoint, ok := staticEndpoints[path]; ok {
		return endpoint
	}
	switch {
	case strings.HasPrefix(path, "/api/evaluations/"):
		return "/api/evaluations/{id}"
	case strings.HasPrefix(path, "/api/"):
		return "/api/*"
	default:
		return "/unknown"
	}
}

// RequestMetrics records request count, latency and sizes per endpoint and
// writes one access-log line per request. The log line carries the request
// id and, for evaluation routes, the evaluation id.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sys := observability.TelemetrySystem
		logger := observability.ServerLogger
		if sys == nil && logger == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		var requestSize int64
		if r.ContentLength > 0 {
			requestSize = r.ContentLength
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		endpoint := getEndpointPattern(r)
		status := strconv.Itoa(wrapped.statusCode)

		if sys != nil {
			labels := map[string]string{
				"method":   r.Method,
				"endpoint": endpoint,
				"status":   status,
			}
			sizeLabels := map[string]string{
				"method":   r.Method,
				"endpoint": endpoint,
			}

			_ = sys.Counter("http_requests_total", 1, labels)
			_ = sys.Histogram("http_request_duration_ms", duration, labels)
			_ = sys.Gauge("http_request_size_bytes", float64(requestSize), sizeLabels)
			_ = sys.Gauge("http_response_size_bytes", float64(wrapped.bytesWritten), sizeLabels)

			if wrapped.statusCode >= 400 {
				errorType := "client_error"
				if wrapped.statusCode >= 500 {
					errorType = "server_error"
				}
				_ = sys.Counter("http_errors_total", 1, map[string]string{
					"method":     r.Method,
					"endpoint":   endpoint,
					"status":     status,
					"error_type": errorType,
				})
			}
		}

		if logger != nil {
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("endpoint", endpoint),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", duration),
				zap.Int64("request_size", requestSize),
				zap.Int64("response_size", wrapped.bytesWritten),
				zap.String("request_id", GetRequestID(r.Context())),
			}
			if evaluationID := EvaluationID(r.Context()); evaluationID != "" {
				fields = append(fields, zap.String("evaluation_id", evaluationID))
			}
			if cached := wrapped.Header().Get(EvaluationCachedHeader); cached != "" {
				fields = append(fields, zap.String("evaluation_cached", cached))
			}
			logger.Info("HTTP request completed", fields...)
		}
	})
}
