package workload

import (
	"fmt"
	"strings"
	"time"

	"github.com/c360/boundedbuffer/pkg/buffer"
)

// Violation kinds.
const (
	KindCapacity    = "capacity"
	KindLoss        = "loss"
	KindDuplication = "duplication"
	KindPhantom     = "phantom"
	KindOrder       = "order"
	KindExpectation = "expectation"
)

// maxViolationNote bounds the examples kept per violation kind.
const maxViolationNote = 5

// Violation aggregates every breach of one kind.
type Violation struct {
	Kind    string   `json:"kind"`
	Count   int      `json:"count"`
	Details []string `json:"details,omitempty"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s x%d: %s", v.Kind, v.Count, strings.Join(v.Details, "; "))
}

// ProducerReport describes one producer.
type ProducerReport struct {
	ID       int   `json:"id"`
	Accepted int64 `json:"accepted"`
	Dropped  int64 `json:"dropped"`
	Rejected int64 `json:"rejected,omitempty"`
	Timeouts int64 `json:"timeouts,omitempty"`
}

// ConsumerReport describes one consumer.
type ConsumerReport struct {
	ID       int   `json:"id"`
	Popped   int64 `json:"popped"`
	Misses   int64 `json:"misses,omitempty"`
	Timeouts int64 `json:"timeouts,omitempty"`
	// FirstPop is measured from the start of the run; zero if nothing was popped.
	FirstPop time.Duration `json:"first_pop,omitempty"`
}

// Report is the outcome of a Run.
type Report struct {
	RunID    string    `json:"run_id"`
	Scenario string    `json:"scenario"`
	Capacity int       `json:"capacity"`
	Started  time.Time `json:"started"`

	Elapsed          time.Duration `json:"elapsed"`
	ProducersElapsed time.Duration `json:"producers_elapsed"`
	TimedOut         bool          `json:"timed_out,omitempty"`

	Produced     int64 `json:"produced"`
	Dropped      int64 `json:"dropped"`
	Consumed     int64 `json:"consumed"`
	Remaining    int   `json:"remaining"`
	PushTimeouts int64 `json:"push_timeouts"`
	PopTimeouts  int64 `json:"pop_timeouts"`
	Rejections   int64 `json:"rejections"`
	Misses       int64 `json:"misses"`

	MaxObservedLen int `json:"max_observed_len"`

	// Per-goroutine detail is only filled in when every goroutine returned.
	Producers []ProducerReport `json:"producers,omitempty"`
	Consumers []ConsumerReport `json:"consumers,omitempty"`

	Buffer     buffer.StatsSummary `json:"buffer"`
	Violations []Violation         `json:"violations,omitempty"`
}

// OK reports whether the run finished without violations.
func (r *Report) OK() bool {
	return !r.TimedOut && len(r.Violations) == 0
}

// Violation returns the violation of the given kind, if any.
func (r *Report) Violation(kind string) (Violation, bool) {
	for _, v := range r.Violations {
		if v.Kind == kind {
			return v, true
		}
	}
	return Violation{}, false
}

func (r *Report) violationSummary() string {
	parts := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

// violations collects breaches by kind, keeping a few examples of each.
type violations struct {
	order  []string
	byKind map[string]*Violation
}

func (vs *violations) add(kind, format string, args ...any) {
	if vs.byKind == nil {
		vs.byKind = make(map[string]*Violation)
	}
	v, ok := vs.byKind[kind]
	if !ok {
		v = &Violation{Kind: kind}
		vs.byKind[kind] = v
		vs.order = append(vs.order, kind)
	}
	v.Count++
	if len(v.Details) < maxViolationNote {
		v.Details = append(v.Details, fmt.Sprintf(format, args...))
	}
}

func (vs *violations) list() []Violation {
	out := make([]Violation, 0, len(vs.order))
	for _, kind := range vs.order {
		out = append(out, *vs.byKind[kind])
	}
	return out
}
