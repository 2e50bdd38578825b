package buffer

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/c360/boundedbuffer/errors"
)

func newBuffer[T any](t *testing.T, capacity int, opts ...Option[T]) *Bounded[T] {
	t.Helper()
	buf, err := New[T](capacity, opts...)
	require.NoError(t, err)
	return buf
}

// waitParked blocks until the buffer reports the expected parked goroutines.
func waitParked[T any](t *testing.T, buf *Bounded[T], producers, consumers int) {
	t.Helper()
	require.Eventually(t, func() bool {
		p, c := buf.Waiting()
		return p == producers && c == consumers
	}, 2*time.Second, time.Millisecond)
}

func TestNew(t *testing.T) {
	buf := newBuffer[int](t, 5)

	assert.Equal(t, 0, buf.Len())
	assert.Equal(t, 5, buf.Cap())
	assert.True(t, buf.IsEmpty())
	assert.False(t, buf.IsFull())
	assert.Empty(t, buf.Snapshot())
}

func TestNew_NegativeCapacity(t *testing.T) {
	buf, err := New[int](-1)
	require.Error(t, err)
	assert.Nil(t, buf)
	assert.True(t, cerrors.IsInvalid(err))
	assert.ErrorIs(t, err, cerrors.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "Bounded.New")
}

func TestBounded_FIFO(t *testing.T) {
	buf := newBuffer[string](t, 3)

	buf.Push("first")
	require.True(t, buf.TryPush("second"))
	require.True(t, buf.TryPushFor("third", time.Second))
	assert.True(t, buf.IsFull())
	assert.Equal(t, []string{"first", "second", "third"}, buf.Snapshot())

	assert.Equal(t, "first", buf.Pop())
	v, ok := buf.TryPop()
	require.True(t, ok)
	assert.Equal(t, "second", v)
	v, ok = buf.TryPopFor(time.Second)
	require.True(t, ok)
	assert.Equal(t, "third", v)
	assert.True(t, buf.IsEmpty())
}

func TestBounded_WrapAround(t *testing.T) {
	buf := newBuffer[int](t, 3)

	next := 0
	expect := 0
	for round := 0; round < 10; round++ {
		for buf.TryPush(next) {
			next++
		}
		for i := 0; i < 2; i++ {
			assert.Equal(t, expect, buf.Pop())
			expect++
		}
		assert.LessOrEqual(t, buf.Len(), buf.Cap())
	}

	for _, v := range buf.Snapshot() {
		assert.Equal(t, expect, v)
		expect++
	}
}

func TestBounded_TryPushFull(t *testing.T) {
	buf := newBuffer[int](t, 2)
	require.True(t, buf.TryPush(1))
	require.True(t, buf.TryPush(2))

	start := time.Now()
	assert.False(t, buf.TryPush(3))
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	assert.Equal(t, 2, buf.Len())
	assert.Equal(t, []int{1, 2}, buf.Snapshot())
	assert.Equal(t, int64(1), buf.Stats().Rejections())
}

func TestBounded_TryPopEmpty(t *testing.T) {
	buf := newBuffer[int](t, 2)

	start := time.Now()
	v, ok := buf.TryPop()
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, 0, buf.Len())
	assert.Equal(t, int64(1), buf.Stats().Misses())
}

func TestBounded_TimedPushExpires(t *testing.T) {
	buf := newBuffer[int](t, 1)
	buf.Push(1)

	start := time.Now()
	ok := buf.TryPushFor(2, 100*time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Equal(t, []int{1}, buf.Snapshot())
	assert.Equal(t, int64(1), buf.Stats().Timeouts())
}

func TestBounded_TimedPopExpires(t *testing.T) {
	buf := newBuffer[int](t, 1)

	start := time.Now()
	_, ok := buf.TryPopUntil(time.Now().Add(100 * time.Millisecond))
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Equal(t, 0, buf.Len())
}

func TestBounded_NonPositiveTimeout(t *testing.T) {
	buf := newBuffer[int](t, 1)

	tests := []struct {
		name string
		run  func() bool
	}{
		{"pop zero duration", func() bool { _, ok := buf.TryPopFor(0); return ok }},
		{"pop negative duration", func() bool { _, ok := buf.TryPopFor(-time.Second); return ok }},
		{"pop past deadline", func() bool { _, ok := buf.TryPopUntil(time.Now().Add(-time.Hour)); return ok }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			assert.False(t, tt.run())
			assert.Less(t, time.Since(start), 50*time.Millisecond)
		})
	}

	// zero duration still succeeds when the operation can complete at once
	assert.True(t, buf.TryPushFor(1, 0))
	assert.False(t, buf.TryPushUntil(2, time.Now().Add(-time.Hour)))
	v, ok := buf.TryPopFor(0)
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestBounded_PushUnblocksOnPop(t *testing.T) {
	buf := newBuffer[int](t, 1)
	buf.Push(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf.Push(2)
	}()

	waitParked(t, buf, 1, 0)
	assert.Equal(t, 1, buf.Pop())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Push did not unblock after Pop")
	}
	assert.Equal(t, []int{2}, buf.Snapshot())
}

func TestBounded_PopUnblocksOnPush(t *testing.T) {
	buf := newBuffer[int](t, 1)

	got := make(chan int, 1)
	go func() {
		got <- buf.Pop()
	}()

	waitParked(t, buf, 0, 1)
	buf.Push(42)

	select {
	case v := <-got:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock after Push")
	}
}

func TestBounded_TimedPushSucceedsWhenSpaceFrees(t *testing.T) {
	buf := newBuffer[int](t, 1)
	buf.Push(1)

	result := make(chan bool, 1)
	go func() {
		result <- buf.TryPushFor(2, 2*time.Second)
	}()

	waitParked(t, buf, 1, 0)
	start := time.Now()
	assert.Equal(t, 1, buf.Pop())

	assert.True(t, <-result)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []int{2}, buf.Snapshot())
}

func TestBounded_ClearWakesAllProducers(t *testing.T) {
	const producers = 4
	buf := newBuffer[int](t, producers)
	for i := 0; i < producers; i++ {
		buf.Push(-1)
	}

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			buf.Push(v)
		}(i)
	}

	waitParked(t, buf, producers, 0)
	buf.Clear()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Clear did not wake every blocked producer")
	}

	assert.Equal(t, producers, buf.Len())
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, buf.Snapshot())
	assert.Equal(t, int64(1), buf.Stats().Clears())
	assert.Equal(t, int64(producers), buf.Stats().Cleared())
}

func TestBounded_ClearDropCallback(t *testing.T) {
	var dropped []int
	buf := newBuffer[int](t, 4, WithDropCallback[int](func(v int) {
		dropped = append(dropped, v)
	}))

	for i := 1; i <= 3; i++ {
		buf.Push(i)
	}
	buf.Clear()

	assert.Equal(t, []int{1, 2, 3}, dropped)
	assert.True(t, buf.IsEmpty())

	// callback runs without the lock held
	buf = newBuffer[int](t, 2, WithDropCallback[int](func(v int) {
		assert.Equal(t, 0, buf.Len())
	}))
	buf.Push(9)
	buf.Clear()
}

func TestBounded_SnapshotIndependence(t *testing.T) {
	buf := newBuffer[int](t, 4)
	buf.Push(1)
	buf.Push(2)
	buf.Push(3)

	snap := buf.Snapshot()
	snap[0] = 100
	snap = append(snap, 200)
	_ = snap

	assert.Equal(t, 1, buf.Pop())
	assert.Equal(t, 2, buf.Pop())
	assert.Equal(t, 3, buf.Pop())
}

func TestBounded_PeekAndBatch(t *testing.T) {
	buf := newBuffer[int](t, 5)

	_, ok := buf.Peek()
	assert.False(t, ok)
	assert.Nil(t, buf.TryPopBatch(3))
	assert.Nil(t, buf.TryPopBatch(0))

	for i := 1; i <= 5; i++ {
		buf.Push(i)
	}

	v, ok := buf.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 5, buf.Len())

	assert.Equal(t, []int{1, 2, 3}, buf.TryPopBatch(3))
	assert.Equal(t, []int{4, 5}, buf.TryPopBatch(10))
	assert.True(t, buf.IsEmpty())
}

func TestBounded_BatchWakesProducers(t *testing.T) {
	buf := newBuffer[int](t, 2)
	buf.Push(1)
	buf.Push(2)

	var wg sync.WaitGroup
	for i := 3; i <= 4; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			buf.Push(v)
		}(i)
	}

	waitParked(t, buf, 2, 0)
	assert.Equal(t, []int{1, 2}, buf.TryPopBatch(2))
	wg.Wait()
	assert.ElementsMatch(t, []int{3, 4}, buf.Snapshot())
}

func TestBounded_PopReleasesReference(t *testing.T) {
	type payload struct{ data []byte }
	buf := newBuffer[*payload](t, 2)

	buf.Push(&payload{data: make([]byte, 16)})
	_ = buf.Pop()

	for _, slot := range buf.items {
		assert.Nil(t, slot)
	}
}

func TestBounded_ZeroCapacity(t *testing.T) {
	buf := newBuffer[int](t, 0)

	assert.Equal(t, 0, buf.Cap())
	assert.True(t, buf.IsEmpty())
	assert.True(t, buf.IsFull())
	assert.False(t, buf.TryPush(1))
	assert.False(t, buf.TryPushFor(1, 20*time.Millisecond))
	_, ok := buf.TryPop()
	assert.False(t, ok)
	_, ok = buf.TryPopFor(20 * time.Millisecond)
	assert.False(t, ok)
	assert.Empty(t, buf.Snapshot())
	assert.Nil(t, buf.TryPopBatch(1))
	buf.Clear()

	// a blocking push never completes
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf.Push(1)
	}()
	waitParked(t, buf, 1, 0)
	select {
	case <-done:
		t.Fatal("Push on a zero-capacity buffer returned")
	case <-time.After(50 * time.Millisecond):
	}

	// release the goroutine so the leak check passes
	buf.mu.Lock()
	buf.capacity = 1
	buf.items = make([]int, 1)
	buf.notFull.Broadcast()
	buf.mu.Unlock()
	<-done
}

func TestBounded_GenericTypes(t *testing.T) {
	type event struct {
		ID   string
		Seq  int
		Tags []string
	}

	buf := newBuffer[event](t, 2)
	buf.Push(event{ID: "a", Seq: 1, Tags: []string{"x"}})

	got := buf.Pop()
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, []string{"x"}, got.Tags)

	bytesBuf := newBuffer[[]byte](t, 1)
	require.True(t, bytesBuf.TryPush([]byte("hello")))
	b, ok := bytesBuf.TryPop()
	require.True(t, ok)
	assert.Equal(t, "hello", string(b))
}

func TestBounded_Statistics(t *testing.T) {
	buf := newBuffer[int](t, 2)

	buf.Push(1)
	buf.Push(2)
	buf.TryPush(3)
	_, _ = buf.Peek()
	buf.Pop()
	buf.Pop()
	buf.TryPop()
	buf.TryPopFor(time.Millisecond)

	s := buf.Stats().Summary()
	assert.Equal(t, int64(2), s.Pushes)
	assert.Equal(t, int64(2), s.Pops)
	assert.Equal(t, int64(1), s.Peeks)
	assert.Equal(t, int64(1), s.Rejections)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, int64(1), s.Timeouts)
	assert.Equal(t, int64(0), s.CurrentSize)
	assert.Equal(t, int64(2), s.MaxSize)
	assert.Greater(t, s.Throughput, 0.0)

	buf.Push(5)
	buf.Stats().Reset()
	assert.Equal(t, int64(0), buf.Stats().Pushes())
	assert.Equal(t, int64(1), buf.Stats().MaxSize())
	assert.InDelta(t, 0.5, buf.Stats().Utilization(int64(buf.Cap())), 1e-9)
}

func TestBounded_TimedWaitHasNoHelperGoroutine(t *testing.T) {
	buf := newBuffer[int](t, 4)
	const waiters = 8

	before := runtime.NumGoroutine()

	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := buf.TryPopFor(5 * time.Second)
			assert.True(t, ok)
		}()
	}
	waitParked(t, buf, 0, waiters)

	// One goroutine per waiter, nothing per pending deadline.
	assert.LessOrEqual(t, runtime.NumGoroutine(), before+waiters)

	for i := 0; i < waiters; i++ {
		buf.Push(i)
	}
	wg.Wait()
}

func TestBounded_ConcurrentTimedOperations(t *testing.T) {
	buf := newBuffer[int](t, 8)

	const workers = 8
	const perWorker = 500

	var pushed, popped sync.WaitGroup
	results := make(chan int, workers*perWorker)

	for w := 0; w < workers; w++ {
		pushed.Add(1)
		go func(base int) {
			defer pushed.Done()
			for i := 0; i < perWorker; i++ {
				for !buf.TryPushFor(base+i, time.Millisecond) {
				}
			}
		}(w * perWorker)
	}

	for w := 0; w < workers; w++ {
		popped.Add(1)
		go func() {
			defer popped.Done()
			for i := 0; i < perWorker; i++ {
				for {
					v, ok := buf.TryPopFor(time.Millisecond)
					if ok {
						results <- v
						break
					}
				}
			}
		}()
	}

	pushed.Wait()
	popped.Wait()
	close(results)

	seen := make(map[int]bool, workers*perWorker)
	for v := range results {
		require.False(t, seen[v], "value %d popped twice", v)
		seen[v] = true
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, 0, buf.Len())
}
