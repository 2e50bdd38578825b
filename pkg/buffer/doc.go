// Package buffer provides Bounded, a generic fixed-capacity FIFO buffer with
// backpressure for handing values between goroutines.
//
// # Overview
//
// Producers block (or time out) while the buffer is full and consumers block
// (or time out) while it is empty. Every call takes a single mutex; waiters
// park on one of two condition variables, "not full" and "not empty", so a
// push only ever wakes a consumer and a pop only ever wakes a producer.
//
// # Quick Start
//
//	buf, err := buffer.New[int](1000)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	buf.Push(42)          // waits for space
//	v := buf.Pop()        // waits for a value
//
//	ok := buf.TryPush(7)  // never waits
//	v, ok = buf.TryPop()
//
//	ok = buf.TryPushFor(8, 250*time.Millisecond)
//	v, ok = buf.TryPopUntil(time.Now().Add(time.Second))
//
// # Operations
//
//   - Push / Pop: wait without bound
//   - TryPush / TryPop: never wait; report failure instead
//   - TryPushFor, TryPushUntil, TryPopFor, TryPopUntil: wait up to a duration or deadline
//   - Len, Cap, IsEmpty, IsFull, Peek, Snapshot: read-only views
//   - Clear, TryPopBatch: bulk removal
//
// A timed call that expires leaves the buffer exactly as it found it. A
// non-positive duration or a deadline in the past behaves like the Try
// variant. When a waiter is handed space or a value at the moment its
// deadline fires, it completes rather than reporting a timeout.
//
// # Wake Policy
//
// Each push signals one waiting consumer and each pop signals one waiting
// producer. Clear frees many slots at once and broadcasts to all waiting
// producers. No ordering among waiters of the same kind is promised; only the
// order of values through the buffer is FIFO.
//
// # Capacity Zero
//
// New accepts capacity 0. Such a buffer is simultaneously full and empty:
// Push and Pop block forever and every Try or timed variant fails. This is
// the expected behavior of a bounded blocking design and is not corrected.
// Deadlocks caused by unbalanced producers and consumers are likewise the
// caller's concern.
//
// # Observability
//
// Statistics are always collected with atomic counters and are available via
// Stats(). Prometheus export is optional:
//
//	buf, err := buffer.New[*Event](1000,
//		buffer.WithMetrics[*Event](registry, "events"),
//		buffer.WithDropCallback[*Event](func(e *Event) {
//			slog.Warn("event discarded", "id", e.ID)
//		}),
//	)
//
// Exported series are prefixed boundedbuf_buffer_ and labelled with the
// component name: pushes_total, pops_total, rejections_total, misses_total,
// timeouts_total{op}, clears_total, cleared_items_total, size, utilization
// and wait_duration_seconds{op}.
//
// # Testing
//
//	go test -race ./pkg/buffer
//	go test -bench=. ./pkg/buffer
package buffer
