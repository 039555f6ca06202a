package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notechan/internal/notes/resilience"
)

func fastRetry(attempts int) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond
	return cfg
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	r := resilience.NewRetry("test", fastRetry(3))

	calls := 0
	err := r.Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_GivesUp(t *testing.T) {
	r := resilience.NewRetry("test", fastRetry(2))

	calls := 0
	err := r.Execute(context.Background(), func() error {
		calls++
		return errBoom
	})

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 2, calls)
}

func TestRetry_DoesNotRetryCanceled(t *testing.T) {
	r := resilience.NewRetry("test", fastRetry(5))

	calls := 0
	err := r.Execute(context.Background(), func() error {
		calls++
		return context.Canceled
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetry_StopsOnContextCancel(t *testing.T) {
	cfg := fastRetry(5)
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour
	r := resilience.NewRetry("test", cfg)

	ctx, cancel := context.WithCancel(context.Background())
	err := r.Execute(ctx, func() error {
		cancel()
		return errBoom
	})

	assert.ErrorIs(t, err, resilience.ErrContextCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetry_CustomShouldRetry(t *testing.T) {
	permanent := errors.New("permanent")
	cfg := fastRetry(5)
	cfg.ShouldRetry = func(err error) bool { return !errors.Is(err, permanent) }
	r := resilience.NewRetry("test", cfg)

	calls := 0
	err := r.Execute(context.Background(), func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestServiceResilience_RetriesInsideBreaker(t *testing.T) {
	sr := resilience.NewServiceResilience("store",
		resilience.CircuitBreakerConfig{ErrorThreshold: 1, Timeout: time.Minute},
		fastRetry(3))

	calls := 0
	err := sr.ExecuteWithResilience(context.Background(), "delete", func() error {
		calls++
		return errBoom
	})

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, calls)
	assert.Equal(t, resilience.StateOpen, sr.State())

	err = sr.ExecuteWithResilience(context.Background(), "delete", func() error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 3, calls)
}
