// Package telemetry defines the Prometheus metrics exposed on /metrics.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the assistant's counters and histograms. All methods are
// nil-safe so call sites need no telemetry-enabled branches.
type Metrics struct {
	registry *prometheus.Registry

	turns        *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	llmRequests  *prometheus.CounterVec
}

// New creates and registers the metric set on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripweaver_turns_total",
			Help: "Conversation turns by decided action.",
		}, []string{"action"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripweaver_tool_calls_total",
			Help: "External tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripweaver_tool_duration_seconds",
			Help:    "External tool call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripweaver_llm_requests_total",
			Help: "LLM completions by routing role and outcome.",
		}, []string{"role", "outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.turns, m.toolCalls, m.toolDuration, m.llmRequests,
	)
	return m
}

// Handler serves the registry for the /metrics route.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTurn counts a decided action for one turn.
func (m *Metrics) RecordTurn(action string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(action).Inc()
}

// ObserveTool records one tool call's latency and outcome.
func (m *Metrics) ObserveTool(tool string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
	m.toolCalls.WithLabelValues(tool, outcome(err)).Inc()
}

// RecordLLM counts one LLM completion by routing role.
func (m *Metrics) RecordLLM(role string, err error) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(role, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
