// Package metrics records MCP tool call metrics with Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Call outcomes used for the status label
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ToolMetrics holds the tool call collectors and their registry
type ToolMetrics struct {
	Calls      *prometheus.CounterVec
	DurationMS *prometheus.HistogramVec
	registry   *prometheus.Registry
}

// NewToolMetrics creates collectors on a private registry
func NewToolMetrics() *ToolMetrics {
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "acme_orders",
		Name:      "tool_calls_total",
		Help:      "Total number of MCP tool calls.",
	}, []string{"tool", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "acme_orders",
		Name:      "tool_duration_ms",
		Help:      "MCP tool call latency in milliseconds.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"tool"})

	registry := prometheus.NewRegistry()
	registry.MustRegister(calls, duration)
	return &ToolMetrics{Calls: calls, DurationMS: duration, registry: registry}
}

// Observe records one finished call
func (m *ToolMetrics) Observe(tool string, failed bool, elapsed time.Duration) {
	status := StatusOK
	if failed {
		status = StatusError
	}
	m.Calls.WithLabelValues(tool, status).Inc()
	m.DurationMS.WithLabelValues(tool).Observe(float64(elapsed) / float64(time.Millisecond))
}

// Registry exposes the private registry
func (m *ToolMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *ToolMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
