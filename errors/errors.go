package errors

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/c360/boundedbuffer/pkg/retry"
)

// ErrorClass tells a caller what to do with a failure
type ErrorClass int

const (
	// ErrorTransient failures may succeed if tried again later
	ErrorTransient ErrorClass = iota
	// ErrorInvalid failures need the caller or its configuration fixed
	ErrorInvalid
	// ErrorFatal failures mean a guarantee was broken; stop
	ErrorFatal
)

var classNames = [...]string{
	ErrorTransient: "transient",
	ErrorInvalid:   "invalid",
	ErrorFatal:     "fatal",
}

func (ec ErrorClass) String() string {
	if ec < 0 || int(ec) >= len(classNames) {
		return "unknown"
	}
	return classNames[ec]
}

// Shared conditions. Packages wrap these with %w so that errors.Is and the
// classifiers below work across package boundaries.
var (
	// Lifecycle: an operation was called in the wrong state
	ErrAlreadyStarted = errors.New("already started")
	ErrNotStarted     = errors.New("not started")
	ErrAlreadyStopped = errors.New("already stopped")

	// Backpressure: no room or no time right now
	ErrQueueFull          = errors.New("queue full")
	ErrTimeout            = errors.New("operation timed out")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")

	// A buffer guarantee was observed broken
	ErrDataCorrupted = errors.New("data corrupted")

	// Configuration
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrMissingConfig  = errors.New("missing required configuration")
	ErrConfigNotFound = errors.New("configuration not found")
)

// sentinelClasses maps shared conditions to their class. The first match
// wins when a chain wraps more than one.
var sentinelClasses = []struct {
	err   error
	class ErrorClass
}{
	{ErrInvalidConfig, ErrorInvalid},
	{ErrMissingConfig, ErrorInvalid},
	{ErrConfigNotFound, ErrorInvalid},
	{ErrAlreadyStarted, ErrorInvalid},
	{ErrNotStarted, ErrorInvalid},
	{ErrAlreadyStopped, ErrorInvalid},
	{ErrDataCorrupted, ErrorFatal},
	{ErrQueueFull, ErrorTransient},
	{ErrTimeout, ErrorTransient},
	{ErrMaxRetriesExceeded, ErrorTransient},
	{context.DeadlineExceeded, ErrorTransient},
	{context.Canceled, ErrorTransient},
}

// ClassifiedError carries an explicit class and the component/operation
// that produced it
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// classOf finds the class of err. An explicit ClassifiedError anywhere in the
// chain wins over sentinel matching. ok is false for unrecognised errors.
func classOf(err error) (class ErrorClass, ok bool) {
	if err == nil {
		return ErrorTransient, false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class, true
	}

	for _, sc := range sentinelClasses {
		if errors.Is(err, sc.err) {
			return sc.class, true
		}
	}
	return ErrorTransient, false
}

// IsTransient reports whether err is known to be worth retrying
func IsTransient(err error) bool {
	class, ok := classOf(err)
	return ok && class == ErrorTransient
}

// IsInvalid reports whether err is known to stem from bad input or configuration
func IsInvalid(err error) bool {
	class, ok := classOf(err)
	return ok && class == ErrorInvalid
}

// IsFatal reports whether err is known to be unrecoverable
func IsFatal(err error) bool {
	class, ok := classOf(err)
	return ok && class == ErrorFatal
}

// Classify returns the class of err. Errors nobody classified count as
// transient, as does nil.
func Classify(err error) ErrorClass {
	class, _ := classOf(err)
	return class
}

// Wrap adds context in the form "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps err like Wrap and marks it transient
func WrapTransient(err error, component, method, action string) error {
	return wrapAs(ErrorTransient, err, component, method, action)
}

// WrapInvalid wraps err like Wrap and marks it invalid
func WrapInvalid(err error, component, method, action string) error {
	return wrapAs(ErrorInvalid, err, component, method, action)
}

// WrapFatal wraps err like Wrap and marks it fatal
func WrapFatal(err error, component, method, action string) error {
	return wrapAs(ErrorFatal, err, component, method, action)
}

func wrapAs(class ErrorClass, err error, component, method, action string) error {
	wrapped := Wrap(err, component, method, action)
	if wrapped == nil {
		return nil
	}
	return &ClassifiedError{
		Class:     class,
		Err:       wrapped,
		Message:   wrapped.Error(),
		Component: component,
		Operation: method,
	}
}

// RetryConfig is a retry budget. MaxRetries counts attempts after the first.
// RetryableErrors, when set, narrows which transient errors are retried.
type RetryConfig struct {
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors []error
}

// ShouldRetry reports whether err, returned by the given 0-based attempt,
// earns another one. Only transient errors are ever retried.
func (rc RetryConfig) ShouldRetry(err error, attempt int) bool {
	if attempt >= rc.MaxRetries || !IsTransient(err) {
		return false
	}
	if len(rc.RetryableErrors) == 0 {
		return true
	}
	return slices.ContainsFunc(rc.RetryableErrors, func(target error) bool {
		return errors.Is(err, target)
	})
}

// ToRetryConfig converts the budget to a pkg/retry Config with jitter on
func (rc RetryConfig) ToRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  rc.MaxRetries + 1,
		InitialDelay: rc.InitialDelay,
		MaxDelay:     rc.MaxDelay,
		Multiplier:   rc.BackoffFactor,
		AddJitter:    true,
	}
}
