package buffer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/boundedbuffer/metric"
)

const (
	metricsNamespace = "boundedbuf"
	metricsSubsystem = "buffer"
)

// bufferMetrics mirrors Statistics into Prometheus collectors.
type bufferMetrics struct {
	pushes     prometheus.Counter
	pops       prometheus.Counter
	peeks      prometheus.Counter
	rejections prometheus.Counter
	misses     prometheus.Counter
	timeouts   *prometheus.CounterVec
	clears     prometheus.Counter
	cleared    prometheus.Counter

	size        prometheus.Gauge
	utilization prometheus.Gauge

	waitDuration *prometheus.HistogramVec
}

func newBufferMetrics(registry *metric.MetricsRegistry, component string) (*bufferMetrics, error) {
	labels := prometheus.Labels{"component": component}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	m := &bufferMetrics{
		pushes:     counter("pushes_total", "Values accepted by the buffer"),
		pops:       counter("pops_total", "Values removed from the buffer"),
		peeks:      counter("peeks_total", "Peek calls that found a value"),
		rejections: counter("rejections_total", "Non-blocking pushes refused because the buffer was full"),
		misses:     counter("misses_total", "Non-blocking pops that found the buffer empty"),
		timeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        "timeouts_total",
			Help:        "Timed operations that expired (op=push|pop)",
			ConstLabels: labels,
		}, []string{"op"}),
		clears:      counter("clears_total", "Clear calls"),
		cleared:     counter("cleared_items_total", "Values discarded by Clear"),
		size:        gauge("size", "Current number of values in the buffer"),
		utilization: gauge("utilization", "Buffer fill ratio (0.0 to 1.0)"),
		waitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        "wait_duration_seconds",
			Help:        "Time producers and consumers spent parked before completing",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"op"}),
	}

	counters := []struct {
		name string
		c    prometheus.Counter
	}{
		{"buffer_pushes", m.pushes},
		{"buffer_pops", m.pops},
		{"buffer_peeks", m.peeks},
		{"buffer_rejections", m.rejections},
		{"buffer_misses", m.misses},
		{"buffer_clears", m.clears},
		{"buffer_cleared_items", m.cleared},
	}
	for _, c := range counters {
		if err := registry.RegisterCounter(component, c.name, c.c); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterCounterVec(component, "buffer_timeouts", m.timeouts); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(component, "buffer_size", m.size); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(component, "buffer_utilization", m.utilization); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec(component, "buffer_wait_duration", m.waitDuration); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *bufferMetrics) recordPush(size, capacity int) {
	m.pushes.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordPop(size, capacity int) {
	m.pops.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordPeek() {
	m.peeks.Inc()
}

func (m *bufferMetrics) recordReject() {
	m.rejections.Inc()
}

func (m *bufferMetrics) recordMiss() {
	m.misses.Inc()
}

func (m *bufferMetrics) recordTimeout(op string) {
	m.timeouts.WithLabelValues(op).Inc()
}

func (m *bufferMetrics) recordClear(n, capacity int) {
	m.clears.Inc()
	m.cleared.Add(float64(n))
	m.updateSize(0, capacity)
}

func (m *bufferMetrics) observeWait(op string, d time.Duration) {
	m.waitDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *bufferMetrics) updateSize(size, capacity int) {
	m.size.Set(float64(size))
	if capacity > 0 {
		m.utilization.Set(float64(size) / float64(capacity))
	}
}
