package buffer

import (
	"fmt"
	"sync"
	"time"

	"github.com/c360/boundedbuffer/errors"
)

// DropCallback receives values discarded by Clear.
type DropCallback[T any] func(item T)

// Bounded is a fixed-capacity FIFO buffer shared between producer and
// consumer goroutines. Producers wait while it is full, consumers wait while
// it is empty. The zero value is not usable; construct with New.
type Bounded[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // oldest item

	notFull  *sync.Cond
	notEmpty *sync.Cond

	// parked goroutines, guarded by mu
	waitingProducers int
	waitingConsumers int

	stats   *Statistics    // always present
	metrics *bufferMetrics // nil unless WithMetrics was given
	opts    *bufferOptions[T]
}

// New creates a buffer holding at most capacity values.
//
// Capacity 0 is accepted: such a buffer is always full and always empty, so
// Push and Pop block forever and every Try variant fails. A negative capacity
// is rejected.
func New[T any](capacity int, options ...Option[T]) (*Bounded[T], error) {
	if capacity < 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("capacity %d: %w", capacity, errors.ErrInvalidConfig),
			"Bounded", "New", "capacity check")
	}

	opts := applyOptions(options...)

	var metrics *bufferMetrics
	if opts.metricsReg != nil {
		var err error
		metrics, err = newBufferMetrics(opts.metricsReg, opts.metricsComponent)
		if err != nil {
			return nil, errors.WrapTransient(err, "Bounded", "New", "metrics registration")
		}
	}

	b := &Bounded[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		stats:    NewStatistics(),
		metrics:  metrics,
		opts:     opts,
	}
	b.notFull = sync.NewCond(&b.mu)
	b.notEmpty = sync.NewCond(&b.mu)

	return b, nil
}

// Push appends v, waiting for as long as it takes for space to appear.
func (b *Bounded[T]) Push(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == b.capacity {
		start := time.Now()
		b.waitingProducers++
		for b.size == b.capacity {
			b.notFull.Wait()
		}
		b.waitingProducers--
		b.observeWait("push", start)
	}

	b.enqueue(v)
}

// TryPush appends v only if there is room right now.
func (b *Bounded[T]) TryPush(v T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == b.capacity {
		b.stats.Reject()
		if b.metrics != nil {
			b.metrics.recordReject()
		}
		return false
	}

	b.enqueue(v)
	return true
}

// TryPushFor waits at most d for space. A non-positive d behaves like TryPush.
func (b *Bounded[T]) TryPushFor(v T, d time.Duration) bool {
	return b.TryPushUntil(v, time.Now().Add(d))
}

// TryPushUntil waits until deadline for space. On timeout v is not stored
// and the buffer is unchanged.
func (b *Bounded[T]) TryPushUntil(v T, deadline time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	ok, parked := b.waitUntil(b.notFull, &b.waitingProducers,
		func() bool { return b.size < b.capacity }, deadline)

	if !ok {
		b.stats.Timeout()
		if b.metrics != nil {
			b.metrics.recordTimeout("push")
		}
		return false
	}

	if parked {
		b.observeWait("push", start)
	}
	b.enqueue(v)
	return true
}

// Pop removes and returns the oldest value, waiting for one to arrive.
func (b *Bounded[T]) Pop() T {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == 0 {
		start := time.Now()
		b.waitingConsumers++
		for b.size == 0 {
			b.notEmpty.Wait()
		}
		b.waitingConsumers--
		b.observeWait("pop", start)
	}

	return b.dequeue()
}

// TryPop removes the oldest value if one is present.
func (b *Bounded[T]) TryPop() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == 0 {
		b.stats.Miss()
		if b.metrics != nil {
			b.metrics.recordMiss()
		}
		var zero T
		return zero, false
	}

	return b.dequeue(), true
}

// TryPopFor waits at most d for a value. A non-positive d behaves like TryPop.
func (b *Bounded[T]) TryPopFor(d time.Duration) (T, bool) {
	return b.TryPopUntil(time.Now().Add(d))
}

// TryPopUntil waits until deadline for a value.
func (b *Bounded[T]) TryPopUntil(deadline time.Time) (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	ok, parked := b.waitUntil(b.notEmpty, &b.waitingConsumers,
		func() bool { return b.size > 0 }, deadline)

	if !ok {
		b.stats.Timeout()
		if b.metrics != nil {
			b.metrics.recordTimeout("pop")
		}
		var zero T
		return zero, false
	}

	if parked {
		b.observeWait("pop", start)
	}
	return b.dequeue(), true
}

// TryPopBatch removes up to max of the oldest values without waiting.
func (b *Bounded[T]) TryPopBatch(max int) []T {
	if max <= 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	n := min(max, b.size)
	if n == 0 {
		return nil
	}

	result := make([]T, n)
	for i := range result {
		result[i] = b.dequeue()
	}
	return result
}

// Peek returns the oldest value without removing it.
func (b *Bounded[T]) Peek() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == 0 {
		var zero T
		return zero, false
	}

	b.stats.Peek()
	if b.metrics != nil {
		b.metrics.recordPeek()
	}
	return b.items[b.tail], true
}

// Len returns the number of buffered values. The result is stale as soon as
// it is returned when other goroutines share the buffer.
func (b *Bounded[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Cap returns the capacity given to New.
func (b *Bounded[T]) Cap() int {
	return b.capacity // immutable
}

// IsEmpty reports whether Len() == 0.
func (b *Bounded[T]) IsEmpty() bool {
	return b.Len() == 0
}

// IsFull reports whether Len() == Cap().
func (b *Bounded[T]) IsFull() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size == b.capacity
}

// Waiting returns how many producers and consumers are parked in a blocking
// or timed call.
func (b *Bounded[T]) Waiting() (producers, consumers int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waitingProducers, b.waitingConsumers
}

// Clear discards every buffered value and wakes all waiting producers.
// The drop callback, if any, runs after the lock is released.
func (b *Bounded[T]) Clear() {
	var dropped []T

	b.mu.Lock()
	n := b.size
	if b.opts.dropCallback != nil && n > 0 {
		dropped = b.collect()
	}

	clear(b.items)
	b.head, b.tail, b.size = 0, 0, 0

	b.stats.Clear(int64(n))
	b.stats.UpdateSize(0)
	if b.metrics != nil {
		b.metrics.recordClear(n, b.capacity)
	}

	b.notFull.Broadcast()
	b.mu.Unlock()

	for _, item := range dropped {
		b.opts.dropCallback(item)
	}
}

// Snapshot returns a copy of the buffered values, oldest first.
func (b *Bounded[T]) Snapshot() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.collect()
}

// Stats returns the buffer's statistics (always collected).
func (b *Bounded[T]) Stats() *Statistics {
	return b.stats
}

// collect copies the contents oldest first. Caller holds mu.
func (b *Bounded[T]) collect() []T {
	out := make([]T, b.size)
	for i := range out {
		out[i] = b.items[(b.tail+i)%b.capacity]
	}
	return out
}

// enqueue stores v at head and wakes one consumer. Caller holds mu and has
// checked that there is room.
func (b *Bounded[T]) enqueue(v T) {
	b.items[b.head] = v
	b.head = (b.head + 1) % b.capacity
	b.size++

	b.stats.Push()
	b.stats.UpdateSize(int64(b.size))
	if b.metrics != nil {
		b.metrics.recordPush(b.size, b.capacity)
	}

	b.notEmpty.Signal()
}

// dequeue removes the value at tail and wakes one producer. Caller holds mu
// and has checked that the buffer is not empty.
func (b *Bounded[T]) dequeue() T {
	var zero T

	v := b.items[b.tail]
	b.items[b.tail] = zero // release for GC
	b.tail = (b.tail + 1) % b.capacity
	b.size--

	b.stats.Pop()
	b.stats.UpdateSize(int64(b.size))
	if b.metrics != nil {
		b.metrics.recordPop(b.size, b.capacity)
	}

	b.notFull.Signal()
	return v
}

// waitUntil parks on cond until ready holds or deadline passes, counting the
// caller in *waiting while it is parked. Caller holds mu. ready is checked
// before expiry on every wake, so a waiter that was signalled just as its
// deadline fired still takes the slot it was given. parked reports whether
// the caller had to wait at all.
func (b *Bounded[T]) waitUntil(cond *sync.Cond, waiting *int, ready func() bool,
	deadline time.Time) (ok, parked bool) {
	if ready() {
		return true, false
	}
	if !time.Now().Before(deadline) {
		return false, false
	}

	// sync.Cond has no timed wait. The timer takes mu before broadcasting,
	// so it cannot fire between the expiry check and Wait parking us. No
	// goroutine exists until the deadline actually fires.
	expired := false
	timer := time.AfterFunc(time.Until(deadline), func() {
		b.mu.Lock()
		expired = true
		cond.Broadcast()
		b.mu.Unlock()
	})
	defer timer.Stop()

	*waiting++
	defer func() { *waiting-- }()

	for !ready() {
		if expired {
			return false, true
		}
		cond.Wait()
	}
	return true, true
}

// observeWait records how long a call spent parked. Caller holds mu.
func (b *Bounded[T]) observeWait(op string, start time.Time) {
	if b.metrics != nil {
		b.metrics.observeWait(op, time.Since(start))
	}
}
