package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/boundedbuffer/errors"
)

// Push modes select which buffer call a producer uses.
const (
	PushBlocking    = "blocking"    // Push
	PushNonBlocking = "nonblocking" // TryPush; refused values are dropped
	PushTimed       = "timed"       // TryPushFor / TryPushUntil; expired values are dropped
	PushRetry       = "retry"       // TryPushFor under retry.Do with backoff
)

// Pop modes select which buffer call a consumer uses.
const (
	PopBlocking    = "blocking"    // Pop
	PopNonBlocking = "nonblocking" // TryPop in a polling loop
	PopTimed       = "timed"       // TryPopFor / TryPopUntil
)

// Config describes one workload run against a bounded buffer.
type Config struct {
	Name      string         `json:"name" yaml:"name"`
	Buffer    BufferConfig   `json:"buffer" yaml:"buffer"`
	Producers ProducerConfig `json:"producers" yaml:"producers"`
	Consumers ConsumerConfig `json:"consumers" yaml:"consumers"`
	Run       RunConfig      `json:"run" yaml:"run"`
	Expect    ExpectConfig   `json:"expect,omitempty" yaml:"expect,omitempty"`
	Metrics   MetricsConfig  `json:"metrics" yaml:"metrics"`
	Log       LogConfig      `json:"log" yaml:"log"`
}

// BufferConfig sizes the buffer under test.
type BufferConfig struct {
	Capacity int `json:"capacity" yaml:"capacity"`
}

// ProducerConfig describes the producing side.
type ProducerConfig struct {
	Count    int         `json:"count" yaml:"count"`
	Items    int         `json:"items" yaml:"items"` // per producer
	Mode     string      `json:"mode" yaml:"mode"`
	Timeout  Duration    `json:"timeout" yaml:"timeout"`   // timed and retry modes
	Interval Duration    `json:"interval" yaml:"interval"` // pause before each push
	Retry    RetryPolicy `json:"retry" yaml:"retry"`
	// Rate limits each producer to that many pushes per second, allowing
	// bursts of Burst. Zero means unlimited.
	Rate  float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
	Burst int     `json:"burst,omitempty" yaml:"burst,omitempty"`
}

// ConsumerConfig describes the consuming side.
type ConsumerConfig struct {
	Count   int      `json:"count" yaml:"count"`
	Mode    string   `json:"mode" yaml:"mode"`
	Timeout Duration `json:"timeout" yaml:"timeout"` // timed mode
	// MaxAttempts stops a consumer after that many pop calls, successful or
	// not. Zero means consume until producers finish and the buffer is empty.
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
}

// RetryPolicy configures the retry push mode.
type RetryPolicy struct {
	MaxRetries    int      `json:"max_retries" yaml:"max_retries"`
	InitialDelay  Duration `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay      Duration `json:"max_delay" yaml:"max_delay"`
	BackoffFactor float64  `json:"backoff_factor" yaml:"backoff_factor"`
}

// RetryConfig converts the policy to the errors package form.
func (p RetryPolicy) RetryConfig() errors.RetryConfig {
	return errors.RetryConfig{
		MaxRetries:      p.MaxRetries,
		InitialDelay:    p.InitialDelay.Std(),
		MaxDelay:        p.MaxDelay.Std(),
		BackoffFactor:   p.BackoffFactor,
		RetryableErrors: []error{errors.ErrTimeout},
	}
}

// RunConfig bounds the run.
type RunConfig struct {
	// Timeout aborts a run that has not finished, e.g. a deadlocked
	// blocking workload. Zero disables the guard.
	Timeout        Duration `json:"timeout" yaml:"timeout"`
	SampleInterval Duration `json:"sample_interval" yaml:"sample_interval"`
}

// ExpectConfig holds optional assertions checked after a run.
type ExpectConfig struct {
	MinElapsed Duration `json:"min_elapsed,omitempty" yaml:"min_elapsed,omitempty"`
	MaxElapsed Duration `json:"max_elapsed,omitempty" yaml:"max_elapsed,omitempty"`
	FinalLen   *int     `json:"final_len,omitempty" yaml:"final_len,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port" yaml:"port"`
	Path    string `json:"path" yaml:"path"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Name:   "default",
		Buffer: BufferConfig{Capacity: 1000},
		Producers: ProducerConfig{
			Count:   2,
			Items:   10000,
			Mode:    PushBlocking,
			Timeout: Duration(100 * time.Millisecond),
			Retry: RetryPolicy{
				MaxRetries:    3,
				InitialDelay:  Duration(10 * time.Millisecond),
				MaxDelay:      Duration(time.Second),
				BackoffFactor: 2.0,
			},
		},
		Consumers: ConsumerConfig{
			Count:   2,
			Mode:    PopBlocking,
			Timeout: Duration(100 * time.Millisecond),
		},
		Run: RunConfig{
			Timeout:        Duration(time.Minute),
			SampleInterval: Duration(10 * time.Millisecond),
		},
		Metrics: MetricsConfig{
			Port: 9090,
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// TotalItems returns the number of values producers will attempt to push.
func (c *Config) TotalItems() int {
	return c.Producers.Count * c.Producers.Items
}

// Lossless reports whether every produced value is guaranteed to be accepted.
func (c *Config) Lossless() bool {
	return c.Producers.Mode == PushBlocking
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Name == "" {
		add("name is required")
	}
	if c.Buffer.Capacity < 0 {
		add("buffer.capacity must be >= 0, got %d", c.Buffer.Capacity)
	}

	if c.Producers.Count < 0 {
		add("producers.count must be >= 0, got %d", c.Producers.Count)
	}
	if c.Producers.Items < 0 {
		add("producers.items must be >= 0, got %d", c.Producers.Items)
	}
	switch c.Producers.Mode {
	case PushBlocking, PushNonBlocking:
	case PushTimed, PushRetry:
		if c.Producers.Timeout <= 0 {
			add("producers.timeout must be > 0 for mode %q", c.Producers.Mode)
		}
	default:
		add("producers.mode %q is not one of blocking, nonblocking, timed, retry", c.Producers.Mode)
	}
	if c.Producers.Interval < 0 {
		add("producers.interval must be >= 0")
	}
	if c.Producers.Rate < 0 || c.Producers.Burst < 0 {
		add("producers.rate and producers.burst must be >= 0")
	}
	if c.Producers.Mode == PushRetry {
		r := c.Producers.Retry
		if r.MaxRetries < 0 {
			add("producers.retry.max_retries must be >= 0")
		}
		if r.InitialDelay < 0 || r.MaxDelay < 0 {
			add("producers.retry delays must be >= 0")
		}
		if r.MaxDelay > 0 && r.InitialDelay > r.MaxDelay {
			add("producers.retry.initial_delay exceeds max_delay")
		}
		if r.BackoffFactor < 0 {
			add("producers.retry.backoff_factor must be >= 0")
		}
	}

	if c.Consumers.Count < 0 {
		add("consumers.count must be >= 0, got %d", c.Consumers.Count)
	}
	if c.Consumers.MaxAttempts < 0 {
		add("consumers.max_attempts must be >= 0")
	}
	switch c.Consumers.Mode {
	case PopNonBlocking:
	case PopBlocking:
		// a blocking consumer claims its share of a known total, so values
		// must not be dropped on the producing side
		if !c.Lossless() && c.Consumers.MaxAttempts == 0 {
			add("consumers.mode blocking requires producers.mode blocking or consumers.max_attempts")
		}
	case PopTimed:
		if c.Consumers.Timeout <= 0 {
			add("consumers.timeout must be > 0 for mode timed")
		}
	default:
		add("consumers.mode %q is not one of blocking, nonblocking, timed", c.Consumers.Mode)
	}
	if c.TotalItems() > 0 && c.Consumers.Count == 0 && c.Producers.Mode == PushBlocking &&
		c.TotalItems() > c.Buffer.Capacity {
		add("blocking producers with no consumers cannot push %d items into capacity %d",
			c.TotalItems(), c.Buffer.Capacity)
	}

	if c.Run.Timeout < 0 {
		add("run.timeout must be >= 0")
	}
	if c.Run.SampleInterval < 0 {
		add("run.sample_interval must be >= 0")
	}
	if c.Expect.MaxElapsed > 0 && c.Expect.MinElapsed > c.Expect.MaxElapsed {
		add("expect.min_elapsed exceeds expect.max_elapsed")
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
			add("metrics.port %d out of range", c.Metrics.Port)
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			add("metrics.path must start with /")
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		add("log.format %q is not one of json, text", c.Log.Format)
	}

	if len(problems) > 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(problems, "; ")),
			"Config", "Validate", "configuration check")
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return Default()
	}
	clone := *c
	if c.Expect.FinalLen != nil {
		n := *c.Expect.FinalLen
		clone.Expect.FinalLen = &n
	}
	return &clone
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

// SaveToFile writes the configuration as JSON or YAML depending on the
// file extension.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return errors.WrapInvalid(err, "Config", "SaveToFile", "encode configuration")
	}
	if err := safeWriteFile(path, data); err != nil {
		return errors.WrapTransient(err, "Config", "SaveToFile", "write configuration")
	}
	return nil
}
