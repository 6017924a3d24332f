// Package prom exports run counters in the Prometheus text format.
package prom

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "simops"

type Metrics struct {
	// Labels: profile, status
	RunsTotal *prometheus.CounterVec
	// Labels: profile
	RunSteps *prometheus.HistogramVec
	// Labels: profile
	RunToolCalls *prometheus.HistogramVec
	// Labels: reason
	PolicyBlocksTotal *prometheus.CounterVec
	// Labels: tool
	ToolErrorsTotal *prometheus.CounterVec

	ValidationFailuresTotal prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. A nil reg gets a private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "runs_total",
			Help:      "Finished agent runs by profile and terminal status",
		}, []string{"profile", "status"}),
		RunSteps: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "run_steps",
			Help:      "Steps taken per run",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10, 15, 20},
		}, []string{"profile"}),
		RunToolCalls: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "run_tool_calls",
			Help:      "Tool calls spent per run",
			Buckets:   []float64{1, 2, 4, 6, 8, 12, 16, 24, 32},
		}, []string{"profile"}),
		PolicyBlocksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "blocks_total",
			Help:      "Proposed actions replaced by the guardrail policy",
		}, []string{"reason"}),
		ToolErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tools",
			Name:      "errors_total",
			Help:      "Failed tool calls by tool",
		}, []string{"tool"}),
		ValidationFailuresTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decider",
			Name:      "validation_failures_total",
			Help:      "Model proposals rejected by the validator",
		}),
		gatherer: reg,
	}
}

func (m *Metrics) RecordRun(profile, status string, steps, toolCalls int) {
	m.RunsTotal.WithLabelValues(profile, status).Inc()
	m.RunSteps.WithLabelValues(profile).Observe(float64(steps))
	m.RunToolCalls.WithLabelValues(profile).Observe(float64(toolCalls))
}

func (m *Metrics) RecordPolicyBlock(reason string) {
	m.PolicyBlocksTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordValidationFailure() {
	m.ValidationFailuresTotal.Inc()
}

func (m *Metrics) RecordToolError(tool string) {
	m.ToolErrorsTotal.WithLabelValues(tool).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
