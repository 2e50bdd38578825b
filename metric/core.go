package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains workload-level metrics shared by every run in a process
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	ItemsTotal      *prometheus.CounterVec
	TimeoutsTotal   *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	ViolationsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "boundedbuf",
				Subsystem: "workload",
				Name:      "runs_total",
				Help:      "Total number of workload runs by result",
			},
			[]string{"scenario", "result"},
		),

		ItemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "boundedbuf",
				Subsystem: "workload",
				Name:      "items_total",
				Help:      "Items moved through the buffer (direction=produced|consumed)",
			},
			[]string{"scenario", "direction"},
		),

		TimeoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "boundedbuf",
				Subsystem: "workload",
				Name:      "timeouts_total",
				Help:      "Timed or non-blocking operations that did not complete",
			},
			[]string{"scenario", "operation"},
		),

		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "boundedbuf",
				Subsystem: "workload",
				Name:      "duration_seconds",
				Help:      "Wall-clock duration of workload runs",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"scenario"},
		),

		ViolationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "boundedbuf",
				Subsystem: "workload",
				Name:      "violations_total",
				Help:      "Contract violations detected by workload checks",
			},
			[]string{"scenario", "kind"},
		),
	}
}

// collectors returns every core collector for registration
func (c *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.RunsTotal,
		c.ItemsTotal,
		c.TimeoutsTotal,
		c.RunDuration,
		c.ViolationsTotal,
	}
}

// RecordRun increments the run counter and observes its duration
func (c *Metrics) RecordRun(scenario string, ok bool, duration time.Duration) {
	result := "success"
	if !ok {
		result = "failure"
	}
	c.RunsTotal.WithLabelValues(scenario, result).Inc()
	c.RunDuration.WithLabelValues(scenario).Observe(duration.Seconds())
}

// RecordItems adds produced and consumed item counts
func (c *Metrics) RecordItems(scenario string, produced, consumed int64) {
	c.ItemsTotal.WithLabelValues(scenario, "produced").Add(float64(produced))
	c.ItemsTotal.WithLabelValues(scenario, "consumed").Add(float64(consumed))
}

// RecordTimeouts adds timed-out operations for an operation kind (push or pop)
func (c *Metrics) RecordTimeouts(scenario, operation string, n int64) {
	if n <= 0 {
		return
	}
	c.TimeoutsTotal.WithLabelValues(scenario, operation).Add(float64(n))
}

// RecordViolation increments the violation counter for a check kind
func (c *Metrics) RecordViolation(scenario, kind string) {
	c.ViolationsTotal.WithLabelValues(scenario, kind).Inc()
}
