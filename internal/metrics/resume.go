package metrics

import (
	"time"

	"github.com/resumeforge/resumeforge/internal/observability"
)

// Limiter and generation metrics
const (
	RateLimitDecisionsTotal = "ratelimit_decisions_total"
	RateLimitTrackedClients = "ratelimit_tracked_clients"
	RateLimitSweptTotal     = "ratelimit_swept_total"

	GenerationsTotal     = "generations_total"
	GenerationDuration   = "generation_duration_ms"
	GenerationCacheTotal = "generation_cache_total"

	ExportsTotal   = "exports_total"
	ExportDuration = "export_duration_ms"
)

// RecordRateLimitDecision counts one admission decision for route.
func RecordRateLimitDecision(route string, admitted bool) {
	decision := "admitted"
	if !admitted {
		decision = "rejected"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitDecisionsTotal,
			1,
			map[string]string{
				"route":    route,
				"decision": decision,
			},
		)
	}
}

// RecordRateLimitSweep reports a janitor pass.
func RecordRateLimitSweep(removed, tracked int) {
	if observability.TelemetrySystem == nil {
		return
	}
	if removed > 0 {
		_ = observability.TelemetrySystem.Counter(RateLimitSweptTotal, float64(removed), nil)
	}
	_ = observability.TelemetrySystem.Gauge(RateLimitTrackedClients, float64(tracked), nil)
}

// RecordGeneration records one tailoring call. outcome is "success" or the
// error code the call failed with.
func RecordGeneration(provider, model, outcome string, duration time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			GenerationsTotal,
			1,
			map[string]string{
				"provider": provider,
				"model":    model,
				"outcome":  outcome,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			GenerationDuration,
			duration,
			map[string]string{
				"provider": provider,
			},
		)
	}
}

// RecordGenerationCache counts cache lookups.
func RecordGenerationCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			GenerationCacheTotal,
			1,
			map[string]string{"result": result},
		)
	}
}

// RecordExport records one document render.
func RecordExport(format string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ExportsTotal,
			1,
			map[string]string{
				"format": format,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			ExportDuration,
			duration,
			map[string]string{"format": format},
		)
	}
}
