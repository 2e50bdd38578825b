package testutil

import (
	"context"
	"sync"
	"time"
)

// MockProcessor is a configurable processor for pools and consumers.
type MockProcessor[T any] struct {
	mu sync.Mutex

	// FailFunc decides whether a value fails; nil never fails.
	FailFunc func(T) error
	// Delay is slept (respecting ctx) before each call returns.
	Delay time.Duration

	Calls  int
	Values []T
}

// NewMockProcessor creates a processor that accepts everything.
func NewMockProcessor[T any]() *MockProcessor[T] {
	return &MockProcessor[T]{}
}

// Process records v and returns the injected error, if any.
func (m *MockProcessor[T]) Process(ctx context.Context, v T) error {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	m.Values = append(m.Values, v)
	if m.FailFunc != nil {
		return m.FailFunc(v)
	}
	return nil
}

// CallCount returns the number of Process calls.
func (m *MockProcessor[T]) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// Received returns a copy of the recorded values in call order.
func (m *MockProcessor[T]) Received() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]T, len(m.Values))
	copy(out, m.Values)
	return out
}
