// Package reliability retries calls to remote document stores.
package reliability

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/hengadev/xmlcodec/docstore"
)

// RetryPolicy decides whether and when a failed attempt is retried.
type RetryPolicy interface {
	// NextDelay returns the delay before the next attempt, given the attempt number (0-indexed)
	NextDelay(attempt int) time.Duration
	ShouldRetry(err error, attempt int) bool
	// MaxAttempts includes the initial attempt
	MaxAttempts() int
}

// RetryConfig holds configuration for retry operations
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter is the fraction of the delay added or removed at random.
	Jitter float64
	// ShouldRetry reports whether err is transient. Nil retries every
	// error except context cancellation.
	ShouldRetry func(error, int) bool
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
		ShouldRetry:  Transient,
	}
}

// Transient reports whether a store request that failed with err may
// succeed when sent again. Missing, corrupt or invalid documents and
// errors marked with Permanent are final, as are context errors.
func Transient(err error, attempt int) bool {
	if err == nil {
		return false
	}
	var p *permanentError
	switch {
	case errors.As(err, &p),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, docstore.ErrNotFound),
		errors.Is(err, docstore.ErrChecksumMismatch),
		errors.Is(err, docstore.ErrInvalidDocument):
		return false
	}
	return true
}

// Permanent marks err as not worth retrying. It returns nil for nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// ExponentialBackoffPolicy implements exponential backoff with jitter
type ExponentialBackoffPolicy struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitter       float64
	shouldRetry  func(error, int) bool
}

// NewExponentialBackoffPolicy creates a policy from config. Unset or
// invalid fields take their DefaultRetryConfig value.
func NewExponentialBackoffPolicy(config RetryConfig) *ExponentialBackoffPolicy {
	def := DefaultRetryConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = def.InitialDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = def.MaxDelay
	}
	if config.Multiplier <= 0 {
		config.Multiplier = def.Multiplier
	}
	if config.Jitter < 0 || config.Jitter > 1 {
		config.Jitter = def.Jitter
	}
	if config.ShouldRetry == nil {
		config.ShouldRetry = def.ShouldRetry
	}

	return &ExponentialBackoffPolicy{
		maxAttempts:  config.MaxAttempts,
		initialDelay: config.InitialDelay,
		maxDelay:     config.MaxDelay,
		multiplier:   config.Multiplier,
		jitter:       config.Jitter,
		shouldRetry:  config.ShouldRetry,
	}
}

func (p *ExponentialBackoffPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		return 0
	}

	delay := float64(p.initialDelay) * math.Pow(p.multiplier, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	if p.jitter > 0 {
		jitterRange := delay * p.jitter
		delay += (rand.Float64() - 0.5) * 2 * jitterRange
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

func (p *ExponentialBackoffPolicy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.maxAttempts-1 { // attempt is 0-indexed
		return false
	}
	return p.shouldRetry(err, attempt)
}

func (p *ExponentialBackoffPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// RetryExecutor runs operations under a RetryPolicy.
type RetryExecutor struct {
	policy  RetryPolicy
	onRetry func(attempt int, delay time.Duration, err error)
}

// NewRetryExecutor creates an executor. onRetry, when not nil, is called
// before each retry.
func NewRetryExecutor(policy RetryPolicy, onRetry func(attempt int, delay time.Duration, err error)) *RetryExecutor {
	if onRetry == nil {
		onRetry = func(int, time.Duration, error) {}
	}
	return &RetryExecutor{policy: policy, onRetry: onRetry}
}

// Execute runs operation until it succeeds, the policy gives up or ctx is
// done. It returns the last operation error.
func (r *RetryExecutor) Execute(ctx context.Context, operation func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	attempt := 0
	for {
		err := operation(ctx)
		if err == nil || attempt+1 >= r.policy.MaxAttempts() || !r.policy.ShouldRetry(err, attempt) {
			return err
		}
		delay := r.policy.NextDelay(attempt)
		attempt++
		r.onRetry(attempt, delay, err)

		if timer == nil {
			timer = time.NewTimer(delay)
		} else {
			timer.Reset(delay)
		}
		select {
		case <-ctx.Done():
			return err
		case <-timer.C:
		}
	}
}
