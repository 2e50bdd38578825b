// Package errors provides standardized error handling for the boundedbuffer module.
//
// # Overview
//
// Errors are sorted into three classes so callers can decide what to do with
// them without matching on strings:
//
//   - Transient: timeouts, a full queue, metrics registration races (retry)
//   - Invalid: bad configuration or input (do not retry, fix the caller)
//   - Fatal: unrecoverable states such as a violated buffer invariant (stop)
//
// The buffer operations themselves never return errors: a full or empty buffer
// and an expired wait are reported with boolean results. Errors appear at the
// edges of the module, in construction, configuration loading, the worker pool
// and the workload harness.
//
// # Error Wrapping Pattern
//
// All wrapping follows the format
//
//	"component.method: action failed: %w"
//
// and three wrappers attach a classification at the same time:
//
//	errors.WrapTransient(err, "Pool", "SubmitWait", "queue push")
//	errors.WrapInvalid(err, "Bounded", "New", "capacity check")
//	errors.WrapFatal(err, "Workload", "Run", "conservation check")
//
// Classification survives further wrapping with fmt.Errorf("...: %w") because
// IsTransient, IsInvalid and IsFatal use errors.As on the chain.
//
// Shared sentinels are classified by a fixed table: lifecycle and
// configuration errors are invalid, ErrDataCorrupted is fatal, and
// backpressure (ErrQueueFull, ErrTimeout, ErrMaxRetriesExceeded, context
// expiry) is transient. Messages are never inspected.
//
// # Retry Budget
//
// RetryConfig decides, per attempt, whether a transient failure earns another
// try, and converts to the pkg/retry Config for the backoff itself:
//
//	budget := errors.RetryConfig{MaxRetries: 3, RetryableErrors: []error{errors.ErrTimeout}}
//	attempt := 0
//	err := retry.Do(ctx, budget.ToRetryConfig(), func() error {
//	    if buf.TryPushFor(v, 50*time.Millisecond) {
//	        return nil
//	    }
//	    if !budget.ShouldRetry(errors.ErrTimeout, attempt) {
//	        return retry.NonRetryable(errors.ErrMaxRetriesExceeded)
//	    }
//	    attempt++
//	    return errors.ErrTimeout
//	})
package errors
