package workload

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/c360/boundedbuffer/config"
	"github.com/c360/boundedbuffer/errors"
	"github.com/c360/boundedbuffer/pkg/buffer"
	"github.com/c360/boundedbuffer/pkg/retry"
)

// Run executes the workload described by cfg against a fresh buffer and
// verifies the outcome.
//
// A run that finishes returns its report. If a check failed the error wraps
// ErrViolation. A run that exceeds cfg.Run.Timeout returns a partial report
// and an error wrapping ErrRunTimeout.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Report, error) {
	if cfg == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Workload", "Run", "config check")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)

	var bufOpts []buffer.Option[Item]
	if o.registry != nil {
		bufOpts = append(bufOpts, buffer.WithMetrics[Item](o.registry, cfg.Name))
	}
	buf, err := buffer.New[Item](cfg.Buffer.Capacity, bufOpts...)
	if err != nil {
		return nil, err
	}

	return newRunner(cfg, buf, o).run(ctx)
}

type runner struct {
	cfg    *config.Config
	buf    *buffer.Bounded[Item]
	opts   runOptions
	logger *slog.Logger
	start  time.Time

	ledger    ledger
	producers []ProducerReport
	consumers []ConsumerReport

	activeProducers  atomic.Int64
	producersDone    chan struct{}
	producersElapsed atomic.Int64
	// tickets left for blocking consumers without an attempt limit
	tickets atomic.Int64

	produced     atomic.Int64
	dropped      atomic.Int64
	consumed     atomic.Int64
	pushTimeouts atomic.Int64
	popTimeouts  atomic.Int64
	rejections   atomic.Int64
	misses       atomic.Int64

	maxLen         atomic.Int64
	overCapSamples atomic.Int64
}

func newRunner(cfg *config.Config, buf *buffer.Bounded[Item], o runOptions) *runner {
	r := &runner{
		cfg:           cfg,
		buf:           buf,
		opts:          o,
		logger:        o.logger,
		producers:     make([]ProducerReport, cfg.Producers.Count),
		consumers:     make([]ConsumerReport, cfg.Consumers.Count),
		producersDone: make(chan struct{}),
	}

	r.ledger.accepted = make([][]bool, cfg.Producers.Count)
	for p := range r.ledger.accepted {
		r.ledger.accepted[p] = make([]bool, cfg.Producers.Items)
		r.producers[p].ID = p
	}
	r.ledger.consumed = make([][]Item, cfg.Consumers.Count)
	for c := range r.consumers {
		r.consumers[c].ID = c
	}

	r.activeProducers.Store(int64(cfg.Producers.Count))
	if cfg.Producers.Count == 0 {
		close(r.producersDone)
	}
	r.tickets.Store(int64(cfg.TotalItems()))
	return r
}

func (r *runner) run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:    uuid.New().String(),
		Scenario: r.cfg.Name,
		Capacity: r.buf.Cap(),
	}
	r.logger = r.logger.With("run_id", report.RunID, "scenario", r.cfg.Name)
	r.logger.Info("Starting workload",
		"capacity", r.cfg.Buffer.Capacity,
		"producers", r.cfg.Producers.Count,
		"items_per_producer", r.cfg.Producers.Items,
		"push_mode", r.cfg.Producers.Mode,
		"consumers", r.cfg.Consumers.Count,
		"pop_mode", r.cfg.Consumers.Mode)

	runCtx := ctx
	if timeout := r.cfg.Run.Timeout.Std(); timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	r.start = time.Now()
	report.Started = r.start

	g, gctx := errgroup.WithContext(runCtx)
	for p := 0; p < r.cfg.Producers.Count; p++ {
		g.Go(func() error { return r.produce(gctx, p) })
	}
	for c := 0; c < r.cfg.Consumers.Count; c++ {
		g.Go(func() error { return r.consume(gctx, c) })
	}
	stopSampler := r.startSampler()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var (
		runErr    error
		completed bool
	)
	select {
	case runErr = <-done:
		completed = true
	case <-runCtx.Done():
		select {
		case runErr = <-done:
			completed = true
		default:
			// Push and Pop cannot observe ctx; those goroutines are abandoned
			runErr = runCtx.Err()
		}
	}
	report.Elapsed = time.Since(r.start)
	stopSampler()
	r.sample()

	r.fillCounters(report)
	if completed {
		report.Producers = r.producers
		report.Consumers = r.consumers
	}

	if runErr != nil {
		return r.abort(ctx, report, runErr)
	}

	var vs violations
	r.verify(report, &vs)
	report.Violations = vs.list()
	r.recordMetrics(report)

	r.logger.Info("Workload finished",
		"elapsed", report.Elapsed,
		"produced", report.Produced,
		"dropped", report.Dropped,
		"consumed", report.Consumed,
		"remaining", report.Remaining,
		"max_len", report.MaxObservedLen)

	if len(report.Violations) > 0 {
		for _, v := range report.Violations {
			r.logger.Warn("Workload check failed", "kind", v.Kind, "count", v.Count, "details", v.Details)
		}
		return report, errors.WrapFatal(
			fmt.Errorf("%w: %s", ErrViolation, report.violationSummary()),
			"Workload", "Run", "verify run")
	}
	return report, nil
}

// abort finishes a run that was cut short by a timeout or cancellation.
func (r *runner) abort(parent context.Context, report *Report, runErr error) (*Report, error) {
	report.TimedOut = stderrors.Is(runErr, context.DeadlineExceeded) && parent.Err() == nil
	r.recordMetrics(report)

	if report.TimedOut {
		r.logger.Error("Workload timed out",
			"timeout", r.cfg.Run.Timeout.Std(),
			"produced", report.Produced,
			"consumed", report.Consumed)
		return report, errors.Wrap(ErrRunTimeout, "Workload", "Run", "wait for producers and consumers")
	}

	r.logger.Warn("Workload cancelled", "error", runErr)
	return report, errors.WrapTransient(runErr, "Workload", "Run", "wait for producers and consumers")
}

func (r *runner) produce(ctx context.Context, id int) error {
	defer r.producerFinished()

	pc := r.cfg.Producers
	rep := &r.producers[id]
	accepted := r.ledger.accepted[id]
	timeout := pc.Timeout.Std()
	budget := pc.Retry.RetryConfig()

	var limiter *rate.Limiter
	if pc.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(pc.Rate), max(pc.Burst, 1))
	}

	for seq := 0; seq < pc.Items; seq++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if pc.Interval > 0 {
			if err := sleep(ctx, pc.Interval.Std()); err != nil {
				return err
			}
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}

		item := Item{Producer: id, Seq: seq}
		var ok bool
		switch pc.Mode {
		case config.PushBlocking:
			r.buf.Push(item)
			ok = true
		case config.PushNonBlocking:
			if ok = r.buf.TryPush(item); !ok {
				rep.Rejected++
				r.rejections.Add(1)
			}
		case config.PushTimed:
			if seq%2 == 0 {
				ok = r.buf.TryPushFor(item, timeout)
			} else {
				ok = r.buf.TryPushUntil(item, time.Now().Add(timeout))
			}
			if !ok {
				rep.Timeouts++
				r.pushTimeouts.Add(1)
			}
		case config.PushRetry:
			err := r.pushWithRetry(ctx, item, timeout, budget, rep)
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			ok = err == nil
		}

		if ok {
			accepted[seq] = true
			rep.Accepted++
			r.produced.Add(1)
		} else {
			rep.Dropped++
			r.dropped.Add(1)
		}
	}

	r.logger.Debug("Producer finished", "producer", id, "accepted", rep.Accepted, "dropped", rep.Dropped)
	return nil
}

// pushWithRetry makes timed push attempts until one succeeds or budget
// refuses another. An exhausted budget yields ErrMaxRetriesExceeded.
func (r *runner) pushWithRetry(ctx context.Context, item Item, timeout time.Duration,
	budget errors.RetryConfig, rep *ProducerReport) error {
	attempt := 0
	return retry.Do(ctx, budget.ToRetryConfig(), func() error {
		if r.buf.TryPushFor(item, timeout) {
			return nil
		}
		rep.Timeouts++
		r.pushTimeouts.Add(1)

		if !budget.ShouldRetry(errors.ErrTimeout, attempt) {
			return retry.NonRetryable(fmt.Errorf("push %d/%d after %d attempts: %w",
				item.Producer, item.Seq, attempt+1, errors.ErrMaxRetriesExceeded))
		}
		attempt++
		return errors.ErrTimeout
	})
}

func (r *runner) producerFinished() {
	if r.activeProducers.Add(-1) == 0 {
		r.producersElapsed.Store(int64(time.Since(r.start)))
		close(r.producersDone)
	}
}

func (r *runner) consume(ctx context.Context, id int) error {
	cc := r.cfg.Consumers
	rep := &r.consumers[id]
	timeout := cc.Timeout.Std()

	for attempt := 0; cc.MaxAttempts == 0 || attempt < cc.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var (
			item Item
			ok   bool
		)
		switch cc.Mode {
		case config.PopBlocking:
			if cc.MaxAttempts == 0 && r.tickets.Add(-1) < 0 {
				return nil
			}
			item, ok = r.buf.Pop(), true
		case config.PopTimed:
			if cc.MaxAttempts == 0 && r.drained() {
				return nil
			}
			if attempt%2 == 0 {
				item, ok = r.buf.TryPopFor(timeout)
			} else {
				item, ok = r.buf.TryPopUntil(time.Now().Add(timeout))
			}
			if !ok {
				rep.Timeouts++
				r.popTimeouts.Add(1)
			}
		case config.PopNonBlocking:
			if cc.MaxAttempts == 0 && r.drained() {
				return nil
			}
			if item, ok = r.buf.TryPop(); !ok {
				rep.Misses++
				r.misses.Add(1)
				runtime.Gosched()
			}
		}

		if ok {
			r.record(id, rep, item)
		}
	}
	return nil
}

func (r *runner) record(id int, rep *ConsumerReport, item Item) {
	if rep.Popped == 0 {
		rep.FirstPop = time.Since(r.start)
	}
	rep.Popped++
	r.consumed.Add(1)
	r.ledger.consumed[id] = append(r.ledger.consumed[id], item)
	if r.opts.onPop != nil {
		r.opts.onPop(id, item)
	}
}

// drained reports whether no value can arrive any more.
func (r *runner) drained() bool {
	select {
	case <-r.producersDone:
		return r.buf.IsEmpty()
	default:
		return false
	}
}

// startSampler polls Len until the returned stop function is called.
func (r *runner) startSampler() (stop func()) {
	interval := r.cfg.Run.SampleInterval.Std()
	if interval <= 0 {
		return func() {}
	}

	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				r.sample()
			}
		}
	}()

	return func() {
		close(quit)
		wg.Wait()
	}
}

func (r *runner) sample() {
	n := int64(r.buf.Len())
	if n > int64(r.buf.Cap()) {
		r.overCapSamples.Add(1)
	}
	for {
		cur := r.maxLen.Load()
		if n <= cur || r.maxLen.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (r *runner) fillCounters(report *Report) {
	report.ProducersElapsed = time.Duration(r.producersElapsed.Load())
	report.Produced = r.produced.Load()
	report.Dropped = r.dropped.Load()
	report.Consumed = r.consumed.Load()
	report.PushTimeouts = r.pushTimeouts.Load()
	report.PopTimeouts = r.popTimeouts.Load()
	report.Rejections = r.rejections.Load()
	report.Misses = r.misses.Load()
	report.Remaining = r.buf.Len()
	report.Buffer = r.buf.Stats().Summary()

	report.MaxObservedLen = int(r.maxLen.Load())
	if m := int(report.Buffer.MaxSize); m > report.MaxObservedLen {
		report.MaxObservedLen = m
	}
}

// verify runs every check on a completed run.
func (r *runner) verify(report *Report, vs *violations) {
	if n := r.overCapSamples.Load(); n > 0 {
		vs.add(KindCapacity, "%d samples above capacity %d", n, report.Capacity)
	}
	if report.MaxObservedLen > report.Capacity {
		vs.add(KindCapacity, "length %d above capacity %d", report.MaxObservedLen, report.Capacity)
	}

	r.ledger.remaining = r.buf.Snapshot()
	checkOrder(&r.ledger, r.cfg.Producers.Count, vs)
	checkConservation(&r.ledger, vs)
	checkExpectations(r.cfg.Expect, report.Elapsed, report.Remaining, vs)
}

func (r *runner) recordMetrics(report *Report) {
	if r.opts.registry == nil {
		return
	}
	m := r.opts.registry.CoreMetrics()
	m.RecordRun(report.Scenario, report.OK(), report.Elapsed)
	m.RecordItems(report.Scenario, report.Produced, report.Consumed)
	m.RecordTimeouts(report.Scenario, "push", report.PushTimeouts)
	m.RecordTimeouts(report.Scenario, "pop", report.PopTimeouts)
	for _, v := range report.Violations {
		m.RecordViolation(report.Scenario, v.Kind)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
