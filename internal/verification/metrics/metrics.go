package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Adapter evaluation latencies by source
	AdapterLatency *prometheus.HistogramVec

	// Terminal run outcomes by status and risk category
	RunOutcome *prometheus.CounterVec

	// Triggers rejected because a run was already active
	TriggerConflicts prometheus.Counter

	// Runs forced to finalize by the hard deadline
	DeadlineExceeded prometheus.Counter

	// Currently executing verification runs
	ActiveRuns prometheus.Gauge

	// Overall run latency from trigger to terminal state
	RunLatency prometheus.Histogram
}

// New creates a new Metrics instance with all verification module metrics registered.
func New() *Metrics {
	return &Metrics{
		AdapterLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vouch_verification_adapter_duration_seconds",
			Help:    "Duration of source adapter evaluations by source",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"source"}), // source: "dns", "registration", "contact", "address"

		RunOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_verification_outcomes_total",
			Help: "Total terminal verification outcomes by status and risk category",
		}, []string{"status", "risk_category"}),

		TriggerConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_verification_trigger_conflicts_total",
			Help: "Total triggers rejected because the company already had an active run",
		}),

		DeadlineExceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_verification_deadline_exceeded_total",
			Help: "Total runs finalized by the hard run deadline",
		}),

		ActiveRuns: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vouch_verification_active_runs",
			Help: "Number of verification runs currently executing",
		}),

		RunLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vouch_verification_run_duration_seconds",
			Help:    "Duration of full verification runs from start to terminal state",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900, 3600, 7200},
		}),
	}
}

// ObserveAdapterLatency records the duration of one adapter evaluation.
func (m *Metrics) ObserveAdapterLatency(source string, d time.Duration) {
	if m != nil {
		m.AdapterLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementOutcome records a terminal run outcome.
func (m *Metrics) IncrementOutcome(status, riskCategory string) {
	if m != nil {
		m.RunOutcome.WithLabelValues(status, riskCategory).Inc()
	}
}

// IncrementTriggerConflict records a rejected concurrent trigger.
func (m *Metrics) IncrementTriggerConflict() {
	if m != nil {
		m.TriggerConflicts.Inc()
	}
}

// IncrementDeadlineExceeded records a run cut off by the hard deadline.
func (m *Metrics) IncrementDeadlineExceeded() {
	if m != nil {
		m.DeadlineExceeded.Inc()
	}
}

// RunStarted marks a run as executing.
func (m *Metrics) RunStarted() {
	if m != nil {
		m.ActiveRuns.Inc()
	}
}

// RunFinished marks a run as no longer executing and records its duration.
func (m *Metrics) RunFinished(d time.Duration) {
	if m != nil {
		m.ActiveRuns.Dec()
		m.RunLatency.Observe(d.Seconds())
	}
}
