package testutil

import (
	"time"

	"github.com/stretchr/testify/assert"
)

// AssertElapsedBetween asserts lo <= elapsed <= hi.
func AssertElapsedBetween(t assert.TestingT, elapsed, lo, hi time.Duration) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	okLo := assert.GreaterOrEqual(t, elapsed, lo, "elapsed %v shorter than %v", elapsed, lo)
	okHi := assert.LessOrEqual(t, elapsed, hi, "elapsed %v longer than %v", elapsed, hi)
	return okLo && okHi
}

// Measure runs fn and returns how long it took.
func Measure(fn func()) time.Duration {
	start := time.Now()
	fn()
	return time.Since(start)
}
