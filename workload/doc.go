// Package workload drives a bounded buffer with concurrent producers and
// consumers and checks that it kept its guarantees.
//
// A run is described by a config.Config. Producers push Item values tagged
// with their index and a sequence number, using one of four push modes:
//
//	blocking     Push
//	nonblocking  TryPush; refused values are counted and dropped
//	timed        alternating TryPushFor and TryPushUntil
//	retry        TryPushFor under retry.Do with exponential backoff
//
// Producers may be paced with a fixed interval before each push or a token
// bucket rate limit (golang.org/x/time/rate).
//
// Consumers use Pop, TryPop or alternating TryPopFor / TryPopUntil. Blocking
// consumers share the known total between them; the others stop once every
// producer has returned and the buffer is empty, or after max_attempts calls.
//
// When all goroutines have returned, Run checks:
//
//   - the buffer never held more than its capacity (sampled and from its
//     own statistics)
//   - every accepted value was popped or is still buffered, exactly once,
//     and nothing else appeared
//   - each consumer saw every producer's values in increasing order
//   - the optional expectations: elapsed bounds and final length
//
// Built-in scenarios are available through Scenarios and Lookup:
//
//	s, _ := workload.Lookup("mpmc")
//	report, err := workload.Run(ctx, s.Config(), workload.WithLogger(logger))
//
// Blocking Push and Pop cannot be interrupted. A run exceeding run.timeout
// returns ErrRunTimeout with the counters gathered so far; goroutines still
// blocked in the buffer are left behind, so callers should treat the process
// as finished.
package workload
