package worker

import (
	"errors"
	"fmt"

	cerrors "github.com/c360/boundedbuffer/errors"
)

// Sentinel errors for worker pool operations. Each wraps the shared error of
// the same condition, so errors.Is and the cerrors classifiers see through
// them.
var (
	// ErrPoolNotStarted indicates the pool hasn't been started yet
	ErrPoolNotStarted = fmt.Errorf("worker pool: %w", cerrors.ErrNotStarted)

	// ErrPoolStopped indicates the pool has been stopped
	ErrPoolStopped = fmt.Errorf("worker pool: %w", cerrors.ErrAlreadyStopped)

	// ErrPoolAlreadyStarted indicates Start() was called on an already-started pool
	ErrPoolAlreadyStarted = fmt.Errorf("worker pool: %w", cerrors.ErrAlreadyStarted)

	// ErrQueueFull indicates the work queue is at capacity
	ErrQueueFull = fmt.Errorf("worker pool: %w", cerrors.ErrQueueFull)

	// ErrStopTimeout indicates the pool didn't stop within the timeout
	ErrStopTimeout = fmt.Errorf("worker pool stop: %w", cerrors.ErrTimeout)

	// ErrNilProcessor indicates a nil processor function was provided
	ErrNilProcessor = errors.New("processor function cannot be nil")
)
