// Package testutil provides helpers shared by the module's tests.
//
// # Overview
//
// Timing assertions:
//
// AssertElapsedBetween checks a measured duration against a closed window,
// which is how the timed-wait tests state their scheduler slack.
//
//	start := time.Now()
//	_, ok := buf.TryPopFor(time.Second)
//	testutil.AssertElapsedBetween(t, time.Since(start), time.Second, 1500*time.Millisecond)
//
// Multisets:
//
// Multiset counts occurrences of comparable values so conservation checks
// (nothing lost, nothing duplicated) read as a single comparison:
//
//	produced := testutil.NewMultiset[int]()
//	consumed := testutil.NewMultiset[int]()
//	...
//	testutil.AssertSameMultiset(t, produced, consumed)
//
// Mock processors:
//
// MockProcessor is a thread-safe processor function for worker pools and
// workload consumers. It counts calls, records values and injects errors or
// delays on demand.
//
// Sequences:
//
// Seq and Tagged build deterministic input for producers, with Tagged values
// carrying the producer index so per-producer FIFO order can be verified
// after values from many producers have been interleaved.
package testutil
