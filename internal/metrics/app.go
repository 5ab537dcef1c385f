package metrics

import (
	"time"

	"github.com/namelens/brandlens/internal/observability"
)

// Application-level metrics following Prometheus conventions
const (
	// Evaluation metrics
	EvaluationsTotal         = "evaluations_total"
	EvaluationDuration       = "evaluation_duration_ms"
	EvaluationCacheHitsTotal = "evaluation_cache_hits_total"
	EvaluationRetriesTotal   = "evaluation_retries_total"

	// Provider metrics
	ProviderCallsTotal = "ailink_provider_calls_total"

	// Domain verification metrics
	DomainChecksTotal = "domain_checks_total"

	// Status check metrics
	StatusChecksTotal = "status_checks_total"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
)

// RecordEvaluation records a finished evaluation. Status is "success",
// "cached", or an error category such as "validation" or "provider".
func RecordEvaluation(status string, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(EvaluationsTotal, 1, map[string]string{"status": status})
	_ = observability.TelemetrySystem.Histogram(EvaluationDuration, duration, map[string]string{"status": status})
}

// RecordEvaluationCacheHit counts an evaluation served from cache.
func RecordEvaluationCacheHit() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(EvaluationCacheHitsTotal, 1, nil)
	}
}

// RecordEvaluationRetry counts a provider retry during evaluation.
func RecordEvaluationRetry(reason string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(EvaluationRetriesTotal, 1, map[string]string{"reason": reason})
	}
}

// RecordProviderCall records one AILink provider round trip.
func RecordProviderCall(provider string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ProviderCallsTotal,
			1,
			map[string]string{
				"provider": provider,
				"outcome":  outcome,
			},
		)
	}
}

// RecordDomainCheck records an RDAP lookup result by availability status.
func RecordDomainCheck(status string, cached bool) {
	source := "rdap"
	if cached {
		source = "cache"
	}
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			DomainChecksTotal,
			1,
			map[string]string{
				"status": status,
				"source": source,
			},
		)
	}
}

// RecordStatusCheck counts a persisted status check.
func RecordStatusCheck() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(StatusChecksTotal, 1, nil)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
