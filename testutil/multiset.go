package testutil

import (
	"fmt"
	"sync"

	"github.com/stretchr/testify/assert"
)

// Multiset counts values. It is safe for concurrent use.
type Multiset[T comparable] struct {
	mu     sync.Mutex
	counts map[T]int
	total  int
}

// NewMultiset creates an empty multiset.
func NewMultiset[T comparable]() *Multiset[T] {
	return &Multiset[T]{counts: make(map[T]int)}
}

// Add records one occurrence of each value.
func (m *Multiset[T]) Add(values ...T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		m.counts[v]++
		m.total++
	}
}

// Len returns the number of occurrences recorded.
func (m *Multiset[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Diff describes how other differs from m, listing at most limit entries.
// An empty result means the multisets are equal.
func (m *Multiset[T]) Diff(other *Multiset[T], limit int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	other.mu.Lock()
	defer other.mu.Unlock()

	var diffs []string
	add := func(s string) bool {
		diffs = append(diffs, s)
		return limit <= 0 || len(diffs) < limit
	}

	for v, n := range m.counts {
		if o := other.counts[v]; o != n {
			if !add(fmt.Sprintf("%v: %d vs %d", v, n, o)) {
				return diffs
			}
		}
	}
	for v, o := range other.counts {
		if _, seen := m.counts[v]; !seen {
			if !add(fmt.Sprintf("%v: 0 vs %d", v, o)) {
				return diffs
			}
		}
	}
	return diffs
}

// AssertSameMultiset asserts want and got hold the same values with the same
// multiplicities.
func AssertSameMultiset[T comparable](t assert.TestingT, want, got *Multiset[T]) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	diffs := want.Diff(got, 10)
	return assert.Empty(t, diffs, "multisets differ (want vs got), total %d vs %d", want.Len(), got.Len())
}
