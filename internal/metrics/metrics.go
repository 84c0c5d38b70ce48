// Package metrics exposes the engine's operational telemetry as Prometheus
// metrics: turn latency, timeouts, invalid actions, pot sizes, and decision
// RPC cost/latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "llmpoker_turn_latency_seconds",
		Help:    "Time from scheduling a seat's turn to the decision being applied",
		Buckets: prometheus.DefBuckets,
	})

	TimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "llmpoker_timeouts_total",
		Help: "Total number of turns that were forced to fold by timeout",
	})

	InvalidActionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "llmpoker_invalid_actions_total",
		Help: "Total number of decisions coerced to fold for violating legal action rules",
	})

	PotSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "llmpoker_pot_size_chips",
		Help:    "Distribution of pot sizes at showdown or fold-win",
		Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
	})

	DecisionCost = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "llmpoker_decision_cost_usd",
		Help:    "Distribution of per-decision model cost",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	DecisionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "llmpoker_decision_rpc_latency_ms",
		Help:    "Distribution of decision RPC round-trip latency",
		Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	})

	SchedulerTicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llmpoker_scheduler_ticks_total",
		Help: "Total number of autonomous scheduler ticks, labeled by outcome",
	}, []string{"created"})
)

// PrometheusSink implements engine.MetricsSink over the package-level
// collectors above. The collectors are package-level (matching the
// teacher's metrics package) since Prometheus registration is a
// process-wide concern; PrometheusSink itself is just a thin adapter so the
// engine depends on an interface, not this package directly.
type PrometheusSink struct{}

// New returns a PrometheusSink. There is no per-instance state: all
// counters live in the default Prometheus registry.
func New() *PrometheusSink { return &PrometheusSink{} }

func (PrometheusSink) RecordTurnLatency(d time.Duration) {
	TurnLatency.Observe(d.Seconds())
}

func (PrometheusSink) RecordTimeout() {
	TimeoutsTotal.Inc()
}

func (PrometheusSink) RecordInvalidAction() {
	InvalidActionsTotal.Inc()
}

func (PrometheusSink) RecordPotSize(amount int64) {
	PotSize.Observe(float64(amount))
}

func (PrometheusSink) RecordDecisionCost(cost float64, latencyMs int64) {
	DecisionCost.Observe(cost)
	DecisionLatency.Observe(float64(latencyMs))
}

// RecordSchedulerTick records one autonomous scheduler tick's outcome. It is
// a package-level function rather than part of engine.MetricsSink, since the
// scheduler's tick isn't a per-hand engine event; nothing in this repository
// calls it.
func RecordSchedulerTick(created bool) {
	label := "false"
	if created {
		label = "true"
	}
	SchedulerTicksTotal.WithLabelValues(label).Inc()
}
