package buffer

import (
	"github.com/c360/boundedbuffer/metric"
)

// Option configures a Bounded buffer.
type Option[T any] func(*bufferOptions[T])

// bufferOptions holds construction-time settings. Statistics are not an
// option; every buffer collects them.
type bufferOptions[T any] struct {
	dropCallback DropCallback[T]

	// metricsReg enables Prometheus export of the buffer's activity
	metricsReg *metric.MetricsRegistry

	// metricsComponent is the component label and registry key
	metricsComponent string
}

// WithMetrics exports buffer activity to registry under the given component
// name. It is ignored when registry is nil or component is empty.
func WithMetrics[T any](registry *metric.MetricsRegistry, component string) Option[T] {
	return func(opts *bufferOptions[T]) {
		if registry != nil && component != "" {
			opts.metricsReg = registry
			opts.metricsComponent = component
		}
	}
}

// WithDropCallback sets a function that receives each value discarded by Clear.
func WithDropCallback[T any](callback DropCallback[T]) Option[T] {
	return func(opts *bufferOptions[T]) {
		opts.dropCallback = callback
	}
}

func applyOptions[T any](options ...Option[T]) *bufferOptions[T] {
	opts := &bufferOptions[T]{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}
