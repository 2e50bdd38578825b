package workload

import (
	"sort"
	"time"

	"github.com/c360/boundedbuffer/config"
)

// Scenario is a named, ready-to-run configuration.
type Scenario struct {
	Name        string
	Description string
	build       func(cfg *config.Config)
}

// Config returns a fresh configuration for the scenario.
func (s Scenario) Config() *config.Config {
	cfg := config.Default()
	cfg.Name = s.Name
	s.build(cfg)
	return cfg
}

func intPtr(n int) *int { return &n }

var scenarios = []Scenario{
	{
		Name:        "timed-pop-empty",
		Description: "one consumer on an empty buffer: TryPopFor(1s) then TryPopUntil(now+1s), both time out",
		build: func(cfg *config.Config) {
			cfg.Buffer.Capacity = 1000
			cfg.Producers.Count = 0
			cfg.Consumers.Count = 1
			cfg.Consumers.Mode = config.PopTimed
			cfg.Consumers.Timeout = config.Duration(time.Second)
			cfg.Consumers.MaxAttempts = 2
			cfg.Run.Timeout = config.Duration(10 * time.Second)
			cfg.Expect.MinElapsed = config.Duration(2000 * time.Millisecond)
			cfg.Expect.MaxElapsed = config.Duration(2500 * time.Millisecond)
			cfg.Expect.FinalLen = intPtr(0)
		},
	},
	{
		Name:        "prefilled-timed-pop",
		Description: "two values pushed, two timed pops return them in order without waiting out the timeout",
		build: func(cfg *config.Config) {
			cfg.Buffer.Capacity = 1000
			cfg.Producers.Count = 1
			cfg.Producers.Items = 2
			cfg.Consumers.Count = 1
			cfg.Consumers.Mode = config.PopTimed
			cfg.Consumers.Timeout = config.Duration(time.Second)
			cfg.Consumers.MaxAttempts = 2
			cfg.Run.Timeout = config.Duration(10 * time.Second)
			cfg.Expect.MaxElapsed = config.Duration(500 * time.Millisecond)
			cfg.Expect.FinalLen = intPtr(0)
		},
	},
	{
		Name:        "mpmc",
		Description: "two blocking producers of 1,000,000 values each, two blocking consumers, capacity 1000",
		build: func(cfg *config.Config) {
			cfg.Buffer.Capacity = 1000
			cfg.Producers.Count = 2
			cfg.Producers.Items = 1_000_000
			cfg.Consumers.Count = 2
			cfg.Run.Timeout = config.Duration(2 * time.Minute)
			cfg.Expect.FinalLen = intPtr(0)
		},
	},
	{
		Name:        "delayed-producer",
		Description: "a producer pushes every 500ms five times; one timed pop with a 5s bound returns the first value",
		build: func(cfg *config.Config) {
			cfg.Buffer.Capacity = 1000
			cfg.Producers.Count = 1
			cfg.Producers.Items = 5
			cfg.Producers.Interval = config.Duration(500 * time.Millisecond)
			cfg.Consumers.Count = 1
			cfg.Consumers.Mode = config.PopTimed
			cfg.Consumers.Timeout = config.Duration(5 * time.Second)
			cfg.Consumers.MaxAttempts = 1
			cfg.Run.Timeout = config.Duration(10 * time.Second)
			cfg.Expect.MinElapsed = config.Duration(2500 * time.Millisecond)
			cfg.Expect.MaxElapsed = config.Duration(3000 * time.Millisecond)
			cfg.Expect.FinalLen = intPtr(4)
		},
	},
	{
		Name:        "lossy-nonblocking",
		Description: "TryPush and TryPop only, small buffer; refused values are dropped and the rest must be conserved",
		build: func(cfg *config.Config) {
			cfg.Buffer.Capacity = 8
			cfg.Producers.Count = 4
			cfg.Producers.Items = 5000
			cfg.Producers.Mode = config.PushNonBlocking
			cfg.Consumers.Count = 2
			cfg.Consumers.Mode = config.PopNonBlocking
			cfg.Run.Timeout = config.Duration(30 * time.Second)
			cfg.Expect.FinalLen = intPtr(0)
		},
	},
	{
		Name:        "timed-contention",
		Description: "timed pushes and timed pops on a small buffer with more producers than consumers",
		build: func(cfg *config.Config) {
			cfg.Buffer.Capacity = 16
			cfg.Producers.Count = 4
			cfg.Producers.Items = 2000
			cfg.Producers.Mode = config.PushTimed
			cfg.Producers.Timeout = config.Duration(time.Millisecond)
			cfg.Consumers.Count = 2
			cfg.Consumers.Mode = config.PopTimed
			cfg.Consumers.Timeout = config.Duration(20 * time.Millisecond)
			cfg.Run.Timeout = config.Duration(30 * time.Second)
			cfg.Expect.FinalLen = intPtr(0)
		},
	},
	{
		Name:        "retry-backpressure",
		Description: "producers retry short timed pushes with exponential backoff into a buffer of four",
		build: func(cfg *config.Config) {
			cfg.Buffer.Capacity = 4
			cfg.Producers.Count = 2
			cfg.Producers.Items = 200
			cfg.Producers.Mode = config.PushRetry
			cfg.Producers.Timeout = config.Duration(time.Millisecond)
			cfg.Producers.Retry = config.RetryPolicy{
				MaxRetries:    5,
				InitialDelay:  config.Duration(time.Millisecond),
				MaxDelay:      config.Duration(20 * time.Millisecond),
				BackoffFactor: 2,
			}
			cfg.Consumers.Count = 1
			cfg.Consumers.Mode = config.PopTimed
			cfg.Consumers.Timeout = config.Duration(50 * time.Millisecond)
			cfg.Run.Timeout = config.Duration(30 * time.Second)
			cfg.Expect.FinalLen = intPtr(0)
		},
	},
	{
		Name:        "rate-limited",
		Description: "producers throttled to 1000 pushes per second each; the run cannot finish faster than the rate allows",
		build: func(cfg *config.Config) {
			cfg.Buffer.Capacity = 16
			cfg.Producers.Count = 2
			cfg.Producers.Items = 200
			cfg.Producers.Rate = 1000
			cfg.Producers.Burst = 1
			cfg.Consumers.Count = 1
			cfg.Run.Timeout = config.Duration(30 * time.Second)
			cfg.Expect.MinElapsed = config.Duration(150 * time.Millisecond)
			cfg.Expect.FinalLen = intPtr(0)
		},
	},
}

// Scenarios returns the built-in scenarios sorted by name.
func Scenarios() []Scenario {
	out := append([]Scenario(nil), scenarios...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the built-in scenario with the given name.
func Lookup(name string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}
