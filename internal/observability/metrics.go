package observability

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/fulmenhq/gofulmen/telemetry/exporters"
)

// DefaultMetricsNamespace prefixes every exported metric name, e.g.
// brandlens_evaluations_total.
const DefaultMetricsNamespace = "brandlens"

// fallbackMetricsPort is reported when the exporter asked for a random port
// and its bound address cannot be read back.
const fallbackMetricsPort = 9090

var (
	// TelemetrySystem receives counters, gauges and histograms from the
	// request middleware and the evaluation pipeline.
	TelemetrySystem *telemetry.System

	// PrometheusExporter serves the collected metrics; /metrics proxies it.
	PrometheusExporter *exporters.PrometheusExporter

	metricsPort int
)

// MetricsOptions configures InitMetrics.
type MetricsOptions struct {
	// Namespace prefixes metric names. Empty uses DefaultMetricsNamespace.
	Namespace string
	// Port for the exporter listener. 0 or less picks a free port.
	Port int
}

// InitMetrics starts the Prometheus exporter and installs TelemetrySystem.
func InitMetrics(opts MetricsOptions) error {
	port := opts.Port
	if port < 0 {
		port = 0
	}
	metricsPort = port

	exporter := exporters.NewPrometheusExporter(MetricsNamespace(opts.Namespace), fmt.Sprintf(":%d", port))
	if err := exporter.Start(); err != nil {
		return fmt.Errorf("start metrics exporter: %w", err)
	}

	if actual, err := resolvePort(exporter.GetAddr()); err == nil {
		metricsPort = actual
	} else if port == 0 {
		metricsPort = fallbackMetricsPort
	}

	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: exporter})
	if err != nil {
		_ = exporter.Stop()
		return fmt.Errorf("create telemetry system: %w", err)
	}

	PrometheusExporter = exporter
	TelemetrySystem = sys
	return nil
}

// StopMetrics shuts the exporter down and clears the telemetry globals.
// It is safe to call when metrics were never started.
func StopMetrics() error {
	exporter := PrometheusExporter
	PrometheusExporter = nil
	TelemetrySystem = nil
	if exporter == nil {
		return nil
	}
	return exporter.Stop()
}

// GetMetricsPort returns the port the Prometheus exporter is listening on
func GetMetricsPort() int {
	return metricsPort
}

// MetricsNamespace normalizes a namespace into a Prometheus-safe prefix:
// lower case, with anything outside [a-z0-9_] replaced by '_'.
func MetricsNamespace(namespace string) string {
	namespace = strings.ToLower(strings.TrimSpace(namespace))
	if namespace == "" {
		return DefaultMetricsNamespace
	}
	var b strings.Builder
	for _, r := range namespace {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

func resolvePort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}
