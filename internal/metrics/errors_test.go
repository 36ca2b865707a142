package metrics

import (
	"net/http"
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/require"

	"github.com/resumeforge/resumeforge/internal/observability"
)

func useFakeCollector(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()
	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: collector})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() { observability.TelemetrySystem = original })
	return collector
}

func TestErrorClass(t *testing.T) {
	require.Equal(t, ErrorClassRateLimited, ErrorClass("RATE_LIMIT_EXCEEDED"))
	require.Equal(t, ErrorClassUpstream, ErrorClass("EXTERNAL_SERVICE_ERROR"))
	require.Equal(t, ErrorClassUpstream, ErrorClass("TIMEOUT"))
	require.Equal(t, ErrorClassClient, ErrorClass("INVALID_INPUT"))
	require.Equal(t, ErrorClassInternal, ErrorClass("CONFIG_INVALID"))
	require.Equal(t, ErrorClassInternal, ErrorClass(""))
}

func TestStatusClass(t *testing.T) {
	require.Equal(t, "", StatusClass(http.StatusOK))
	require.Equal(t, "", StatusClass(http.StatusFound))
	require.Equal(t, ErrorClassRateLimited, StatusClass(http.StatusTooManyRequests))
	require.Equal(t, ErrorClassUpstream, StatusClass(http.StatusGatewayTimeout))
	require.Equal(t, ErrorClassClient, StatusClass(http.StatusNotFound))
	require.Equal(t, ErrorClassInternal, StatusClass(http.StatusInternalServerError))
}

func TestRecordErrorLabelsClass(t *testing.T) {
	collector := useFakeCollector(t)

	RecordError("RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests)
	RecordError("EXTERNAL_SERVICE_ERROR", http.StatusBadGateway)
	RecordErrorByEndpoint("/api/generate", "RATE_LIMIT_EXCEEDED")

	errs := collector.GetMetricsByName(ErrorsTotalName)
	require.Len(t, errs, 2)
	require.Equal(t, map[string]string{"error_code": "RATE_LIMIT_EXCEEDED", "http_status": "429", "class": "rate_limited"}, errs[0].Tags)
	require.Equal(t, "upstream", errs[1].Tags["class"])

	byEndpoint := collector.GetMetricsByName(ErrorsByEndpointName)
	require.Len(t, byEndpoint, 1)
	require.Equal(t, "/api/generate", byEndpoint[0].Tags["endpoint"])
}

func TestRecordersAreNoopsWithoutTelemetry(t *testing.T) {
	original := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = original })

	RecordError("INTERNAL_ERROR", 500)
	RecordErrorByEndpoint("/", "INTERNAL_ERROR")
	RecordPanic("/")
}
