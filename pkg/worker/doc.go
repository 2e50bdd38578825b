// Package worker provides a generic worker pool whose queue is a
// buffer.Bounded.
//
// # Overview
//
// A Pool runs a fixed number of goroutines that pop work from a bounded
// queue and hand it to a processor function. The queue gives the pool
// backpressure: Submit reports ErrQueueFull immediately, SubmitWait parks the
// caller until a worker frees a slot or its context ends.
//
//	pool, err := worker.NewPool[Job](
//	    5,   // workers
//	    100, // queue capacity
//	    func(ctx context.Context, job Job) error {
//	        return handle(ctx, job)
//	    },
//	)
//	if err != nil {
//	    return err
//	}
//
//	if err := pool.Start(ctx); err != nil {
//	    return err
//	}
//	defer pool.Stop(5 * time.Second)
//
//	if err := pool.Submit(job); errors.Is(err, worker.ErrQueueFull) {
//	    // shed load, or block instead:
//	    err = pool.SubmitWait(ctx, job)
//	}
//
// # Shutdown
//
// Stop(timeout) rejects further submissions with ErrPoolStopped, lets the
// workers drain what is already queued and waits for them up to timeout,
// returning ErrStopTimeout if they are still busy. Cancelling the context
// given to Start stops the workers without draining.
//
// # Observability
//
// Statistics are always tracked with atomics and returned by Stats, together
// with the queue's buffer statistics. WithMetricsRegistry additionally
// exports boundedbuf_worker_* series labelled with the pool name and the
// queue's boundedbuf_buffer_* series under "<name>_queue".
package worker
