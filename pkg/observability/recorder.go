// Package observability provides the engine's metrics recorder and
// tracer handle. Metrics are prometheus counters and histograms;
// tracing goes through the global otel tracer provider, so installing
// an SDK is the embedding application's choice.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder counts generations, tool calls, transfers, and delegations.
// A nil Recorder is valid and records nothing.
type Recorder struct {
	generations        *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	toolCalls          *prometheus.CounterVec
	transfers          *prometheus.CounterVec
	delegations        *prometheus.CounterVec
}

// NewRecorder registers the engine metrics with the given registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_generations_total",
			Help: "Completed generation turns by agent and outcome.",
		}, []string{"agent", "outcome"}),
		generationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "parley_generation_duration_seconds",
			Help:    "Generation turn duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"agent"}),
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_tool_calls_total",
			Help: "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		transfers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_transfers_total",
			Help: "Control handoffs between agents.",
		}, []string{"from", "to"}),
		delegations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_delegations_total",
			Help: "Delegations by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Generation records one finished generation turn.
func (r *Recorder) Generation(agentID string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.generations.WithLabelValues(agentID, outcome(err)).Inc()
	r.generationDuration.WithLabelValues(agentID).Observe(d.Seconds())
}

// ToolCall records one tool invocation.
func (r *Recorder) ToolCall(toolName string, err error) {
	if r == nil {
		return
	}
	r.toolCalls.WithLabelValues(toolName, outcome(err)).Inc()
}

// Transfer records one control handoff.
func (r *Recorder) Transfer(from, to string) {
	if r == nil {
		return
	}
	r.transfers.WithLabelValues(from, to).Inc()
}

// Delegation records one delegation; kind is internal, external, or
// team.
func (r *Recorder) Delegation(kind string, err error) {
	if r == nil {
		return
	}
	r.delegations.WithLabelValues(kind, outcome(err)).Inc()
}
