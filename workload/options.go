package workload

import (
	"log/slog"

	"github.com/c360/boundedbuffer/metric"
)

// Option configures a Run.
type Option func(*runOptions)

type runOptions struct {
	logger   *slog.Logger
	registry *metric.MetricsRegistry
	onPop    func(consumer int, item Item)
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *runOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records core workload metrics in registry and exports the
// buffer's own metrics under the run's name.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(o *runOptions) {
		o.registry = registry
	}
}

// WithPopHook calls fn from the consumer goroutine for every value it pops.
func WithPopHook(fn func(consumer int, item Item)) Option {
	return func(o *runOptions) {
		o.onPop = fn
	}
}

func applyOptions(opts []Option) runOptions {
	o := runOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
