// ABOUTME: Prometheus metrics for the auto-purge sweep
// ABOUTME: Registered against a caller-supplied registerer

package sweep

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for sweep runs. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	runs      *prometheus.CounterVec
	purged    prometheus.Counter
	remaining prometheus.Gauge
	failed    prometheus.Counter
	duration  prometheus.Histogram
}

// NewMetrics creates sweep metrics registered against reg. Pass
// prometheus.DefaultRegisterer for process-wide metrics; tests use their
// own registry to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finch_sweep_runs_total",
				Help: "Total number of auto-purge sweep runs",
			},
			[]string{"result"},
		),
		purged: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "finch_sweep_purged_total",
				Help: "Total number of conversations permanently deleted by the sweep",
			},
		),
		remaining: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "finch_sweep_remaining",
				Help: "Soft-deleted conversations still inside the retention window as of the last sweep",
			},
		),
		failed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "finch_sweep_failed_total",
				Help: "Total number of conversations whose purge failed",
			},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "finch_sweep_duration_seconds",
				Help:    "Duration of sweep runs in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
		),
	}
}

// recordRun records the outcome of one sweep run.
func (m *Metrics) recordRun(result Result, elapsed time.Duration, scanFailed bool) {
	if m == nil {
		return
	}

	outcome := "ok"
	if scanFailed || result.Failed > 0 {
		outcome = "error"
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.purged.Add(float64(result.Purged))
	m.remaining.Set(float64(result.Remaining))
	m.failed.Add(float64(result.Failed))
	m.duration.Observe(elapsed.Seconds())
}
