package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/c360/boundedbuffer/metric"
	"github.com/c360/boundedbuffer/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testWork struct {
	id    int
	delay time.Duration
	fail  bool
}

func newTestPool(t *testing.T, workers, queueSize int, processor func(context.Context, testWork) error,
	opts ...Option[testWork]) *Pool[testWork] {
	t.Helper()
	pool, err := NewPool(workers, queueSize, processor, opts...)
	require.NoError(t, err)
	return pool
}

func noop(_ context.Context, _ testWork) error { return nil }

func TestNewPool(t *testing.T) {
	pool := newTestPool(t, 5, 100, noop)
	assert.Equal(t, 5, pool.workers)
	assert.Equal(t, 100, pool.queueSize)
	assert.Equal(t, 100, pool.queue.Cap())

	pool = newTestPool(t, 0, 100, noop)
	assert.Equal(t, defaultWorkers, pool.workers)

	pool = newTestPool(t, 5, 0, noop)
	assert.Equal(t, defaultQueueSize, pool.queueSize)
}

func TestNewPool_NilProcessor(t *testing.T) {
	assert.PanicsWithValue(t, ErrNilProcessor, func() {
		_, _ = NewPool[testWork](5, 100, nil)
	})
}

func TestPool_QueueFull(t *testing.T) {
	release := make(chan struct{})
	pool := newTestPool(t, 1, 2, func(_ context.Context, _ testWork) error {
		<-release
		return nil
	})

	require.NoError(t, pool.Start(context.Background()))

	// first item is taken by the worker, the next two fill the queue
	require.NoError(t, pool.Submit(testWork{id: 0}))
	require.Eventually(t, func() bool { return pool.Stats().QueueDepth == 0 },
		time.Second, time.Millisecond)
	require.NoError(t, pool.Submit(testWork{id: 1}))
	require.NoError(t, pool.Submit(testWork{id: 2}))

	err := pool.Submit(testWork{id: 3})
	assert.ErrorIs(t, err, ErrQueueFull)

	stats := pool.Stats()
	assert.Equal(t, int64(1), stats.Dropped)
	assert.Equal(t, int64(3), stats.Submitted)
	assert.Equal(t, 2, stats.QueueDepth)
	assert.Equal(t, int64(1), stats.Queue.Rejections)

	close(release)
	require.NoError(t, pool.Stop(5*time.Second))
	assert.Equal(t, int64(3), pool.Stats().Processed)
}

func TestPool_SubmitWaitBackpressure(t *testing.T) {
	release := make(chan struct{})
	pool := newTestPool(t, 1, 1, func(_ context.Context, _ testWork) error {
		<-release
		return nil
	})
	require.NoError(t, pool.Start(context.Background()))

	require.NoError(t, pool.Submit(testWork{id: 0}))
	require.Eventually(t, func() bool { return pool.Stats().QueueDepth == 0 },
		time.Second, time.Millisecond)
	require.NoError(t, pool.Submit(testWork{id: 1}))

	// queue full: a bounded SubmitWait times out
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	err := pool.SubmitWait(ctx, testWork{id: 2})
	cancel()
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// an unbounded SubmitWait completes once the worker frees space
	done := make(chan error, 1)
	go func() {
		done <- pool.SubmitWait(context.Background(), testWork{id: 3})
	}()

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("SubmitWait did not complete after space freed")
	}

	require.NoError(t, pool.Stop(5*time.Second))
	assert.Equal(t, int64(3), pool.Stats().Processed)
}

func TestPool_ProcessingErrors(t *testing.T) {
	proc := testutil.NewMockProcessor[testWork]()
	proc.FailFunc = func(w testWork) error {
		if w.fail {
			return errors.New("processing failed")
		}
		return nil
	}
	pool := newTestPool(t, 2, 10, proc.Process)
	require.NoError(t, pool.Start(context.Background()))

	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(testWork{id: i, fail: i%2 == 0}))
	}
	require.NoError(t, pool.Stop(5*time.Second))

	stats := pool.Stats()
	assert.Equal(t, int64(10), stats.Processed)
	assert.Equal(t, int64(5), stats.Failed)
	assert.Equal(t, 10, proc.CallCount())
}

func TestPool_SingleWorkerKeepsOrder(t *testing.T) {
	proc := testutil.NewMockProcessor[testWork]()
	pool := newTestPool(t, 1, 8, proc.Process)
	require.NoError(t, pool.Start(context.Background()))

	for i := 0; i < 100; i++ {
		require.NoError(t, pool.SubmitWait(context.Background(), testWork{id: i}))
	}
	require.NoError(t, pool.Stop(5*time.Second))

	received := proc.Received()
	require.Len(t, received, 100)
	for i, w := range received {
		assert.Equal(t, i, w.id)
	}
}

func TestPool_ContextCancellation(t *testing.T) {
	var processed atomic.Int64
	pool := newTestPool(t, 1, 100, func(ctx context.Context, w testWork) error {
		select {
		case <-time.After(w.delay):
			processed.Add(1)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, pool.Start(ctx))

	for i := 0; i < 20; i++ {
		require.NoError(t, pool.Submit(testWork{id: i, delay: 50 * time.Millisecond}))
	}

	time.Sleep(75 * time.Millisecond)
	cancel()

	require.NoError(t, pool.Stop(5*time.Second))
	assert.Less(t, processed.Load(), int64(20))
	assert.Greater(t, pool.Stats().QueueDepth, 0, "cancelled pool does not drain")
}

func TestPool_StopTimeout(t *testing.T) {
	release := make(chan struct{})
	pool := newTestPool(t, 1, 1, func(_ context.Context, _ testWork) error {
		<-release
		return nil
	})
	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Submit(testWork{}))
	require.Eventually(t, func() bool { return pool.Stats().QueueDepth == 0 },
		time.Second, time.Millisecond)

	assert.ErrorIs(t, pool.Stop(50*time.Millisecond), ErrStopTimeout)

	close(release)
	require.Eventually(t, func() bool { return pool.Stats().Processed == 1 },
		time.Second, time.Millisecond)
	// the worker exits once it sees the drained queue
	pool.wg.Wait()
}

func TestPool_ConcurrentSubmissions(t *testing.T) {
	var processed atomic.Int64
	pool := newTestPool(t, 4, 16, func(_ context.Context, _ testWork) error {
		processed.Add(1)
		return nil
	})
	require.NoError(t, pool.Start(context.Background()))

	const submitters = 8
	const perSubmitter = 200

	var wg sync.WaitGroup
	for s := 0; s < submitters; s++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perSubmitter; i++ {
				assert.NoError(t, pool.SubmitWait(context.Background(), testWork{id: base + i}))
			}
		}(s * perSubmitter)
	}
	wg.Wait()

	require.NoError(t, pool.Stop(5*time.Second))
	assert.Equal(t, int64(submitters*perSubmitter), processed.Load())
	assert.Equal(t, int64(0), pool.Stats().Dropped)
}

func TestPool_Metrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	pool := newTestPool(t, 1, 4, func(_ context.Context, w testWork) error {
		if w.fail {
			return errors.New("fail")
		}
		return nil
	}, WithMetricsRegistry[testWork](registry, "ingest"))

	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Submit(testWork{id: 1}))
	require.NoError(t, pool.Submit(testWork{id: 2, fail: true}))
	require.NoError(t, pool.Stop(5*time.Second))

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() != nil {
				values[mf.GetName()] += m.GetCounter().GetValue()
			}
		}
	}

	assert.Equal(t, 2.0, values["boundedbuf_worker_submitted_total"])
	assert.Equal(t, 2.0, values["boundedbuf_worker_processed_total"])
	assert.Equal(t, 1.0, values["boundedbuf_worker_failed_total"])
	assert.Equal(t, 2.0, values["boundedbuf_buffer_pushes_total"])

	// a second pool with the same name conflicts
	_, err = NewPool(1, 1, noop, WithMetricsRegistry[testWork](registry, "ingest"))
	assert.Error(t, err)
}
