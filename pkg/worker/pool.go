package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/boundedbuffer/metric"
	"github.com/c360/boundedbuffer/pkg/buffer"
)

const (
	defaultWorkers   = 10
	defaultQueueSize = 1000

	// pollInterval bounds how long a submitter blocked on a full queue holds
	// a timed wait before re-checking its context and the pool state.
	pollInterval = 50 * time.Millisecond

	// idleWait bounds how long an idle worker parks on an empty queue. It is
	// also the longest Stop waits for an idle worker to notice the drain.
	idleWait = 250 * time.Millisecond
)

// Pool runs a fixed number of workers over a buffer.Bounded queue
type Pool[T any] struct {
	workers   int
	queueSize int
	processor func(context.Context, T) error
	name      string

	queue   *buffer.Bounded[T]
	metrics *Metrics
	wg      sync.WaitGroup

	// lifecycleMu is held for reading by submitters and for writing by
	// Start and Stop, so no value is queued after Stop begins draining.
	lifecycleMu sync.RWMutex
	started     bool
	stopped     bool
	draining    atomic.Bool

	submitted atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	metricsRegistry *metric.MetricsRegistry
}

// Metrics holds Prometheus metrics for worker pool monitoring
type Metrics struct {
	submitted      prometheus.Counter
	processed      prometheus.Counter
	failed         prometheus.Counter
	dropped        prometheus.Counter
	processingTime *prometheus.HistogramVec
}

// Option represents a configuration option for the worker pool
type Option[T any] func(*Pool[T])

// WithMetricsRegistry registers pool metrics, and the queue's buffer metrics
// under "<name>_queue", with registry.
func WithMetricsRegistry[T any](registry *metric.MetricsRegistry, name string) Option[T] {
	return func(p *Pool[T]) {
		p.metricsRegistry = registry
		if name != "" {
			p.name = name
		}
	}
}

// NewPool creates a pool. Non-positive workers or queueSize fall back to
// defaults; a nil processor panics.
func NewPool[T any](workers, queueSize int, processor func(context.Context, T) error,
	opts ...Option[T]) (*Pool[T], error) {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if processor == nil {
		panic(ErrNilProcessor)
	}

	pool := &Pool[T]{
		workers:   workers,
		queueSize: queueSize,
		processor: processor,
		name:      "worker_pool",
	}

	for _, opt := range opts {
		opt(pool)
	}

	var queueOpts []buffer.Option[T]
	if pool.metricsRegistry != nil {
		queueOpts = append(queueOpts, buffer.WithMetrics[T](pool.metricsRegistry, pool.name+"_queue"))
	}

	queue, err := buffer.New[T](queueSize, queueOpts...)
	if err != nil {
		return nil, err
	}
	pool.queue = queue

	if pool.metricsRegistry != nil {
		if err := pool.initializeMetrics(); err != nil {
			return nil, err
		}
	}

	return pool, nil
}

func (p *Pool[T]) initializeMetrics() error {
	labels := prometheus.Labels{"pool": p.name}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "boundedbuf",
			Subsystem:   "worker",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	m := &Metrics{
		submitted: counter("submitted_total", "Total work items submitted"),
		processed: counter("processed_total", "Total work items processed"),
		failed:    counter("failed_total", "Total work items that failed processing"),
		dropped:   counter("dropped_total", "Total work items rejected because the queue was full"),
		processingTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "boundedbuf",
			Subsystem:   "worker",
			Name:        "processing_duration_seconds",
			Help:        "Time spent processing work items",
			ConstLabels: labels,
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"status"}),
	}

	for name, c := range map[string]prometheus.Counter{
		"submitted_total": m.submitted,
		"processed_total": m.processed,
		"failed_total":    m.failed,
		"dropped_total":   m.dropped,
	} {
		if err := p.metricsRegistry.RegisterCounter(p.name, name, c); err != nil {
			return err
		}
	}
	if err := p.metricsRegistry.RegisterHistogramVec(p.name, "processing_duration_seconds",
		m.processingTime); err != nil {
		return err
	}

	p.metrics = m
	return nil
}

// Submit queues work without waiting. It returns ErrQueueFull when the queue
// has no room.
func (p *Pool[T]) Submit(work T) error {
	p.lifecycleMu.RLock()
	defer p.lifecycleMu.RUnlock()

	if err := p.acceptingLocked(); err != nil {
		return err
	}

	if !p.queue.TryPush(work) {
		p.dropped.Add(1)
		if p.metrics != nil {
			p.metrics.dropped.Inc()
		}
		return ErrQueueFull
	}

	p.recordSubmit()
	return nil
}

// SubmitWait queues work, waiting for space until ctx is done or the pool
// stops.
func (p *Pool[T]) SubmitWait(ctx context.Context, work T) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("submit cancelled: %w", err)
		}

		wait := pollInterval
		if deadline, ok := ctx.Deadline(); ok {
			wait = min(wait, time.Until(deadline))
		}

		ok, err := p.tryPushFor(work, wait)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
}

func (p *Pool[T]) tryPushFor(work T, wait time.Duration) (bool, error) {
	p.lifecycleMu.RLock()
	defer p.lifecycleMu.RUnlock()

	if err := p.acceptingLocked(); err != nil {
		return false, err
	}
	if !p.queue.TryPushFor(work, wait) {
		return false, nil
	}
	p.recordSubmit()
	return true, nil
}

// acceptingLocked reports whether submissions are allowed. Caller holds lifecycleMu.
func (p *Pool[T]) acceptingLocked() error {
	if !p.started {
		return ErrPoolNotStarted
	}
	if p.stopped {
		return ErrPoolStopped
	}
	return nil
}

func (p *Pool[T]) recordSubmit() {
	p.submitted.Add(1)
	if p.metrics != nil {
		p.metrics.submitted.Inc()
	}
}

// Start starts the workers. Cancelling ctx stops them without draining.
func (p *Pool[T]) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.started {
		return ErrPoolAlreadyStarted
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}

	p.started = true
	return nil
}

// Stop rejects new work, lets the workers drain the queue and waits up to
// timeout for them to exit.
func (p *Pool[T]) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	if !p.started || p.stopped {
		p.lifecycleMu.Unlock()
		return nil
	}
	p.stopped = true
	p.draining.Store(true)
	p.lifecycleMu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}

// Stats returns current pool statistics
func (p *Pool[T]) Stats() PoolStats {
	return PoolStats{
		Workers:    p.workers,
		QueueSize:  p.queueSize,
		QueueDepth: p.queue.Len(),
		Submitted:  p.submitted.Load(),
		Processed:  p.processed.Load(),
		Failed:     p.failed.Load(),
		Dropped:    p.dropped.Load(),
		Queue:      p.queue.Stats().Summary(),
	}
}

// PoolStats represents worker pool statistics
type PoolStats struct {
	Workers    int                 `json:"workers"`
	QueueSize  int                 `json:"queue_size"`
	QueueDepth int                 `json:"queue_depth"`
	Submitted  int64               `json:"submitted"`
	Processed  int64               `json:"processed"`
	Failed     int64               `json:"failed"`
	Dropped    int64               `json:"dropped"`
	Queue      buffer.StatsSummary `json:"queue"`
}

// worker pops until ctx is cancelled, or until Stop has been called and the
// queue is empty.
func (p *Pool[T]) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		work, ok := p.queue.TryPopFor(idleWait)
		if !ok {
			if p.draining.Load() && p.queue.IsEmpty() {
				return
			}
			continue
		}

		start := time.Now()
		err := p.processor(ctx, work)
		duration := time.Since(start)

		p.processed.Add(1)
		if err != nil {
			p.failed.Add(1)
		}

		if p.metrics != nil {
			p.metrics.processed.Inc()
			status := "success"
			if err != nil {
				p.metrics.failed.Inc()
				status = "error"
			}
			p.metrics.processingTime.WithLabelValues(status).Observe(duration.Seconds())
		}
	}
}
