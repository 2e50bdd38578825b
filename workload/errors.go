package workload

import (
	"fmt"

	"github.com/c360/boundedbuffer/errors"
)

var (
	// ErrRunTimeout is returned when a run does not finish within
	// run.timeout. Goroutines blocked in Push or Pop are abandoned.
	ErrRunTimeout = fmt.Errorf("workload run exceeded its timeout: %w", errors.ErrTimeout)

	// ErrViolation is returned when a finished run breaks a buffer guarantee
	// or a configured expectation. The report lists the details.
	ErrViolation = fmt.Errorf("workload check failed: %w", errors.ErrDataCorrupted)
)
