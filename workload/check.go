package workload

import (
	"time"

	"github.com/c360/boundedbuffer/config"
)

// Item is the value a workload moves through the buffer.
type Item struct {
	Producer int `json:"producer"`
	Seq      int `json:"seq"`
}

// ledger is what the run recorded, as input to the checks.
type ledger struct {
	// accepted[p][s] is true when the buffer accepted Item{p, s}
	accepted [][]bool
	// consumed[c] lists the values consumer c popped, in pop order
	consumed [][]Item
	// remaining is the buffer content after the run, oldest first
	remaining []Item
}

// checkOrder reports values that one consumer saw out of producer order.
// Any single consumer observes a subsequence of the buffer's FIFO order,
// so per producer its sequence numbers must be strictly increasing.
func checkOrder(l *ledger, producers int, vs *violations) {
	streams := append([][]Item{}, l.consumed...)
	streams = append(streams, l.remaining)

	last := make([]int, producers)
	for i, stream := range streams {
		for p := range last {
			last[p] = -1
		}
		for _, it := range stream {
			if it.Producer < 0 || it.Producer >= producers {
				continue
			}
			if it.Seq <= last[it.Producer] {
				vs.add(KindOrder, "stream %d: producer %d seq %d after %d",
					i, it.Producer, it.Seq, last[it.Producer])
			}
			last[it.Producer] = it.Seq
		}
	}
}

// checkConservation matches accepted values against consumed and remaining
// ones: each accepted value must appear exactly once, nothing else may appear.
func checkConservation(l *ledger, vs *violations) {
	seen := make([][]uint8, len(l.accepted))
	for p, acc := range l.accepted {
		seen[p] = make([]uint8, len(acc))
	}

	mark := func(it Item) {
		if it.Producer < 0 || it.Producer >= len(seen) || it.Seq < 0 || it.Seq >= len(seen[it.Producer]) {
			vs.add(KindPhantom, "unknown value %+v", it)
			return
		}
		if seen[it.Producer][it.Seq] < 2 {
			seen[it.Producer][it.Seq]++
		}
	}
	for _, stream := range l.consumed {
		for _, it := range stream {
			mark(it)
		}
	}
	for _, it := range l.remaining {
		mark(it)
	}

	for p, acc := range l.accepted {
		for s, ok := range acc {
			n := seen[p][s]
			switch {
			case ok && n == 0:
				vs.add(KindLoss, "producer %d seq %d accepted but never seen", p, s)
			case n > 1:
				vs.add(KindDuplication, "producer %d seq %d seen more than once", p, s)
			case !ok && n > 0:
				vs.add(KindPhantom, "producer %d seq %d seen but never accepted", p, s)
			}
		}
	}
}

// checkExpectations applies the optional post-run assertions.
func checkExpectations(exp config.ExpectConfig, elapsed time.Duration, remaining int, vs *violations) {
	if lo := exp.MinElapsed.Std(); lo > 0 && elapsed < lo {
		vs.add(KindExpectation, "elapsed %v below %v", elapsed, lo)
	}
	if hi := exp.MaxElapsed.Std(); hi > 0 && elapsed > hi {
		vs.add(KindExpectation, "elapsed %v above %v", elapsed, hi)
	}
	if exp.FinalLen != nil && remaining != *exp.FinalLen {
		vs.add(KindExpectation, "final length %d, expected %d", remaining, *exp.FinalLen)
	}
}
