package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromExporter mirrors a Tracker's snapshot onto Prometheus gauges. It never
// blocks or errors Record — registration failures are logged by the caller
// at wiring time, not surfaced from the hot path.
type PromExporter struct {
	tracker *Tracker

	tokensTotal *prometheus.GaugeVec
	costUSD     prometheus.Gauge
}

// NewPromExporter registers the exporter's collectors on reg and returns it.
func NewPromExporter(tracker *Tracker, reg prometheus.Registerer) *PromExporter {
	e := &PromExporter{
		tracker: tracker,
		tokensTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "goclaw_tokens_total",
			Help: "Cumulative tokens processed, by kind and agent.",
		}, []string{"kind", "agent"}),
		costUSD: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "goclaw_estimated_cost_usd",
			Help: "Cumulative estimated USD cost across all model invocations.",
		}),
	}
	reg.MustRegister(e.tokensTotal, e.costUSD)
	return e
}

// Sync refreshes the gauges from the tracker's current snapshot. Call after
// every Record, or on a periodic ticker — both are safe, Sync is idempotent.
func (e *PromExporter) Sync() {
	snap := e.tracker.Snapshot()
	e.costUSD.Set(snap.EstimatedCostUSD)
	for agent, stats := range snap.PerAgent {
		e.tokensTotal.WithLabelValues("prompt", agent).Set(float64(stats.PromptTokens))
		e.tokensTotal.WithLabelValues("cached", agent).Set(float64(stats.CachedTokens))
		e.tokensTotal.WithLabelValues("output", agent).Set(float64(stats.OutputTokens))
	}
}
