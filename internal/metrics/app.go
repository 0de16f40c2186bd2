// Package metrics emits telemetry counters for the service boundary. The
// pipeline's own aggregates live in internal/graph/metrics; these emitters
// add process-level and upstream-outcome series to the Prometheus exporter.
package metrics

import (
	"time"

	"github.com/graphgate/graphgate/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Upstream pipeline metrics
	UpstreamRequestsTotal   = "app_upstream_requests_total"
	UpstreamRequestDuration = "app_upstream_request_duration_ms"
	RateLimitWaitsTotal     = "app_rate_limit_waits_total"

	// Connection metrics
	ActiveConnections = "app_active_connections"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// RecordUpstreamRequest records the terminal outcome of one logical upstream
// call. errType is empty for successes.
func RecordUpstreamRequest(category string, status int, errType string, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	outcome := "success"
	if errType != "" {
		outcome = errType
	} else if status == 0 {
		outcome = "aborted"
	}

	_ = observability.TelemetrySystem.Counter(
		UpstreamRequestsTotal,
		1,
		map[string]string{
			"category": category,
			"outcome":  outcome,
		},
	)

	_ = observability.TelemetrySystem.Histogram(
		UpstreamRequestDuration,
		duration,
		map[string]string{
			"category": category,
		},
	)
}

// RecordRateLimitWait counts an admission that had to wait for window
// capacity.
func RecordRateLimitWait(category string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitWaitsTotal,
			1,
			map[string]string{
				"category": category,
			},
		)
	}
}

// SetActiveConnections sets the current number of active connections
func SetActiveConnections(count int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ActiveConnections,
			float64(count),
			nil,
		)
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

// SetServerUptime records the server uptime in seconds
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerUptime,
			float64(seconds),
			nil,
		)
	}
}
