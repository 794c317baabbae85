package reliability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hengadev/xmlcodec/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int, shouldRetry func(error, int) bool) *ExponentialBackoffPolicy {
	return NewExponentialBackoffPolicy(RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
		ShouldRetry:  shouldRetry,
	})
}

func TestExponentialBackoffPolicy_Defaults(t *testing.T) {
	p := NewExponentialBackoffPolicy(RetryConfig{Jitter: 3})

	assert.Equal(t, DefaultRetryConfig().MaxAttempts, p.MaxAttempts())
	assert.Equal(t, DefaultRetryConfig().Jitter, p.jitter)
	assert.Equal(t, time.Duration(0), p.NextDelay(-1))
}

func TestExponentialBackoffPolicy_NextDelay(t *testing.T) {
	p := NewExponentialBackoffPolicy(RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2,
	})
	p.jitter = 0

	assert.Equal(t, 100*time.Millisecond, p.NextDelay(0))
	assert.Equal(t, 200*time.Millisecond, p.NextDelay(1))
	assert.Equal(t, 400*time.Millisecond, p.NextDelay(2))
	assert.Equal(t, time.Second, p.NextDelay(10))
}

func TestExponentialBackoffPolicy_JitterStaysInRange(t *testing.T) {
	p := NewExponentialBackoffPolicy(RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		Multiplier:   1,
		Jitter:       0.5,
	})
	for i := 0; i < 100; i++ {
		d := p.NextDelay(0)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestRetryExecutor_SucceedsAfterRetries(t *testing.T) {
	var retries []int
	exec := NewRetryExecutor(fastPolicy(3, nil), func(attempt int, delay time.Duration, err error) {
		retries = append(retries, attempt)
	})

	calls := 0
	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("throttled")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestRetryExecutor_GivesUp(t *testing.T) {
	exec := NewRetryExecutor(fastPolicy(2, nil), nil)

	calls := 0
	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("unavailable")
	})

	assert.EqualError(t, err, "unavailable")
	assert.Equal(t, 2, calls)
}

func TestRetryExecutor_PermanentError(t *testing.T) {
	permanent := errors.New("not found")
	exec := NewRetryExecutor(fastPolicy(5, func(err error, attempt int) bool {
		return !errors.Is(err, permanent)
	}), nil)

	calls := 0
	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryExecutor_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := NewRetryExecutor(fastPolicy(3, nil), nil)
	err := exec.Execute(ctx, func(ctx context.Context) error {
		t.Fatal("operation must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransient(t *testing.T) {
	assert.True(t, Transient(errors.New("503"), 0))
	assert.False(t, Transient(nil, 0))
	assert.False(t, Transient(context.Canceled, 0))
	assert.False(t, Transient(context.DeadlineExceeded, 0))
}

func TestTransient_DocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not found", fmt.Errorf("get: %w", docstore.ErrNotFound), false},
		{"checksum", docstore.ErrChecksumMismatch, false},
		{"invalid", docstore.ErrInvalidDocument, false},
		{"marked permanent", Permanent(errors.New("forbidden")), false},
		{"wrapped permanent", fmt.Errorf("put: %w", Permanent(errors.New("forbidden"))), false},
		{"throttled", errors.New("SlowDown"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transient(tt.err, 0))
		})
	}
	assert.Nil(t, Permanent(nil))
}

func TestRetryExecutor_MissingDocumentIsNotRetried(t *testing.T) {
	exec := NewRetryExecutor(fastPolicy(5, nil), nil)

	calls := 0
	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("read secret: %w", docstore.ErrNotFound)
	})

	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.Equal(t, 1, calls)
}
