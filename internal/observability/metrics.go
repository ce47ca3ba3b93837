package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// report intake and hotspot aggregation core.
type Metrics struct {
	ReportsSubmitted    prometheus.Counter
	DuplicatesFlagged   *prometheus.CounterVec // label: rule
	ModerationDecisions *prometheus.CounterVec // label: decision
	PersistenceErrors   *prometheus.CounterVec // label: table
	EventPublishErrors  prometheus.Counter

	RecomputeDuration prometheus.Histogram
	HotspotRows       prometheus.Gauge
}

// NewMetrics creates and registers all core metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReportsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "noise_hotspot",
			Name:      "reports_submitted_total",
			Help:      "Total incident reports accepted for storage.",
		}),
		DuplicatesFlagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "noise_hotspot",
			Name:      "duplicates_flagged_total",
			Help:      "Duplicate flags raised, by matching dedup rule.",
		}, []string{"rule"}),
		ModerationDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "noise_hotspot",
			Name:      "moderation_decisions_total",
			Help:      "Moderation decisions recorded, by decision value.",
		}, []string{"decision"}),
		PersistenceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "noise_hotspot",
			Name:      "persistence_errors_total",
			Help:      "Failed table saves, by table. In-memory state is kept on failure.",
		}, []string{"table"}),
		EventPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "noise_hotspot",
			Name:      "event_publish_errors_total",
			Help:      "Best-effort change events that failed to publish.",
		}),
		RecomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "noise_hotspot",
			Name:      "hotspot_recompute_duration_seconds",
			Help:      "Duration of a full hotspot table recompute.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		HotspotRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "noise_hotspot",
			Name:      "hotspot_rows",
			Help:      "Row count of the most recently computed hotspot table.",
		}),
	}

	prometheus.MustRegister(
		m.ReportsSubmitted,
		m.DuplicatesFlagged,
		m.ModerationDecisions,
		m.PersistenceErrors,
		m.EventPublishErrors,
		m.RecomputeDuration,
		m.HotspotRows,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests
// can construct services repeatedly without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReportsSubmitted:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "noise_hotspot", Name: "reports_submitted_total"}),
		DuplicatesFlagged:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "noise_hotspot", Name: "duplicates_flagged_total"}, []string{"rule"}),
		ModerationDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "noise_hotspot", Name: "moderation_decisions_total"}, []string{"decision"}),
		PersistenceErrors:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "noise_hotspot", Name: "persistence_errors_total"}, []string{"table"}),
		EventPublishErrors:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "noise_hotspot", Name: "event_publish_errors_total"}),
		RecomputeDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "noise_hotspot", Name: "hotspot_recompute_duration_seconds"}),
		HotspotRows:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "noise_hotspot", Name: "hotspot_rows"}),
	}
}
