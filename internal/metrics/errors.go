package metrics

import (
	"net/http"
	"strconv"

	"github.com/resumeforge/resumeforge/internal/observability"
)

// Metric names
const (
	ErrorsTotalName      = "errors_total"
	PanicsTotalName      = "panics_total"
	ErrorsByEndpointName = "errors_by_endpoint"
)

// Error classes let dashboards separate "try again later" (rate_limited)
// from provider trouble (upstream) and our own failures (internal).
const (
	ErrorClassRateLimited = "rate_limited"
	ErrorClassClient      = "client"
	ErrorClassUpstream    = "upstream"
	ErrorClassInternal    = "internal"
)

// ErrorClass maps an envelope code onto its class.
func ErrorClass(code string) string {
	switch code {
	case "RATE_LIMIT_EXCEEDED":
		return ErrorClassRateLimited
	case "EXTERNAL_SERVICE_ERROR", "TIMEOUT", "SERVICE_UNAVAILABLE":
		return ErrorClassUpstream
	case "INVALID_INPUT", "NOT_FOUND", "UNAUTHORIZED", "METHOD_NOT_ALLOWED", "PAYLOAD_TOO_LARGE":
		return ErrorClassClient
	default:
		return ErrorClassInternal
	}
}

// StatusClass maps an HTTP status onto the same classes. Statuses below 400
// have no class.
func StatusClass(status int) string {
	switch {
	case status < 400:
		return ""
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimited
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		return ErrorClassUpstream
	case status < 500:
		return ErrorClassClient
	default:
		return ErrorClassInternal
	}
}

// RecordError counts an error response by code, status and class.
func RecordError(errorCode string, httpStatus int) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(ErrorsTotalName, 1, map[string]string{
		"error_code":  errorCode,
		"http_status": strconv.Itoa(httpStatus),
		"class":       ErrorClass(errorCode),
	})
}

// RecordErrorByEndpoint counts an error against a route pattern.
func RecordErrorByEndpoint(endpoint string, errorCode string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(ErrorsByEndpointName, 1, map[string]string{
		"endpoint":   endpoint,
		"error_code": errorCode,
		"class":      ErrorClass(errorCode),
	})
}

// RecordPanic counts a recovered panic.
func RecordPanic(endpoint string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(PanicsTotalName, 1, map[string]string{
		"endpoint": endpoint,
	})
}
