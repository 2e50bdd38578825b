// Package retry provides exponential backoff retry logic for callers of the
// bounded buffer that choose to retry a timed-out operation.
//
// The buffer never retries internally: a TryPushFor that expires simply
// reports false. A producer that wants at-least-eventually delivery wraps the
// timed push in Do and turns the false into a retryable error:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    if !buf.TryPushFor(v, 20*time.Millisecond) {
//	        return errors.ErrTimeout
//	    }
//	    return nil
//	})
//
// Errors wrapped with NonRetryable stop the loop immediately. Do honours
// context cancellation both while fn runs and during the backoff sleep.
//
// Jitter uses math/rand/v2, which is safe for concurrent use.
package retry
