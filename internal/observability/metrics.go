package observability

import (
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/fulmenhq/gofulmen/telemetry/exporters"
)

var (
	// TelemetrySystem receives every domain metric (limiter decisions,
	// generations, exports, errors). Recorders are no-ops while it is nil.
	TelemetrySystem *telemetry.System

	// PrometheusExporter renders TelemetrySystem for /metrics.
	PrometheusExporter *exporters.PrometheusExporter

	metricsMu   sync.Mutex
	metricsPort int
)

// InitMetrics starts the Prometheus exporter on port (0 picks a free port)
// with every metric name prefixed by namespace, and installs TelemetrySystem.
func InitMetrics(namespace string, port int) error {
	if port < 0 {
		port = 0
	}

	exporter := exporters.NewPrometheusExporter(namespace, fmt.Sprintf(":%d", port))
	if err := exporter.Start(); err != nil {
		return fmt.Errorf("start prometheus exporter: %w", err)
	}

	bound, err := portOf(exporter.GetAddr())
	if err != nil {
		_ = exporter.Stop()
		return fmt.Errorf("resolve prometheus exporter address: %w", err)
	}

	sys, err := telemetry.NewSystem(&telemetry.Config{
		Enabled: true,
		Emitter: exporter,
	})
	if err != nil {
		_ = exporter.Stop()
		return fmt.Errorf("create telemetry system: %w", err)
	}

	metricsMu.Lock()
	defer metricsMu.Unlock()
	PrometheusExporter = exporter
	TelemetrySystem = sys
	metricsPort = bound
	return nil
}

// StopMetrics stops the exporter and disables metric recording.
func StopMetrics() error {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	exporter := PrometheusExporter
	PrometheusExporter = nil
	TelemetrySystem = nil
	metricsPort = 0

	if exporter == nil {
		return nil
	}
	return exporter.Stop()
}

// MetricsURL is the loopback scrape URL of the running exporter, or "" when
// metrics are disabled.
func MetricsURL() string {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if PrometheusExporter == nil || metricsPort == 0 {
		return ""
	}
	return fmt.Sprintf("http://127.0.0.1:%d/metrics", metricsPort)
}

func portOf(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, err
	}
	if port <= 0 {
		return 0, fmt.Errorf("no port in %q", addr)
	}
	return port, nil
}
