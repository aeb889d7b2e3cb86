package retry_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/opsline/engine/internal/retry"
)

func recordingPolicy(delays *[]time.Duration) retry.Policy {
	p := retry.DefaultPolicy()
	p.Sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return p
}

func TestDoSucceedsAfterTransientFaults(t *testing.T) {
	var delays []time.Duration
	p := recordingPolicy(&delays)

	calls := 0
	res, err := retry.Do(context.Background(), p,
		func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", &retry.StatusError{Code: 503}
			}
			return "ok", nil
		})

	assert.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDoTerminalFaultFailsFast(t *testing.T) {
	var delays []time.Duration
	p := recordingPolicy(&delays)

	terminal := errors.New("bad credentials")
	calls := 0
	_, err := retry.Do(context.Background(), p,
		func(context.Context) (int, error) {
			calls++
			return 0, terminal
		})

	assert.ErrorIs(t, err, terminal)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDoExhaustsAttempts(t *testing.T) {
	var delays []time.Duration
	p := recordingPolicy(&delays)

	fault := &retry.StatusError{URL: "http://api", Code: 500}
	calls := 0
	_, err := retry.Do(context.Background(), p,
		func(context.Context) (int, error) {
			calls++
			return 0, fault
		})

	assert.Equal(t, fault, err)
	assert.Equal(t, retry.DefaultMaxAttempts, calls)
	assert.Len(t, delays, retry.DefaultMaxAttempts-1)
}

func TestDoBackoffCapped(t *testing.T) {
	var delays []time.Duration
	p := recordingPolicy(&delays)
	p.MaxAttempts = 6
	p.MaxBackoff = 3 * time.Second

	_, err := retry.Do(context.Background(), p,
		func(context.Context) (int, error) {
			return 0, &retry.StatusError{Code: 500}
		})

	assert.Error(t, err)
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second,
		3 * time.Second, 3 * time.Second, 3 * time.Second,
	}, delays)
}

func TestDoCanceledDuringBackoff(t *testing.T) {
	p := retry.DefaultPolicy()
	p.Sleep = func(context.Context, time.Duration) error {
		return context.Canceled
	}

	fault := &retry.StatusError{Code: 500}
	calls := 0
	_, err := retry.Do(context.Background(), p,
		func(context.Context) (int, error) {
			calls++
			return 0, fault
		})

	assert.Equal(t, fault, err)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, retry.IsRetryable(&retry.StatusError{Code: 500}))
	assert.True(t, retry.IsRetryable(&retry.StatusError{Code: 503}))
	assert.True(t, retry.IsRetryable(&retry.StatusError{Code: 429}))
	assert.True(t, retry.IsRetryable(context.DeadlineExceeded))
	assert.True(t, retry.IsRetryable(&net.OpError{
		Op: "dial", Err: errors.New("connection refused"),
	}))

	assert.False(t, retry.IsRetryable(&retry.StatusError{Code: 404}))
	assert.False(t, retry.IsRetryable(&retry.StatusError{Code: 400}))
	assert.False(t, retry.IsRetryable(errors.New("parse failure")))
	assert.False(t, retry.IsRetryable(context.Canceled))
}

func TestPolicyValidate(t *testing.T) {
	p := retry.DefaultPolicy()
	assert.NoError(t, p.Validate())

	p.MaxAttempts = 0
	assert.ErrorIs(t, p.Validate(), retry.ErrInvalidMaxAttempts)

	p = retry.DefaultPolicy()
	p.MaxBackoff = p.InitBackoff - 1
	assert.ErrorIs(t, p.Validate(), retry.ErrMaxBackoffTooSmall)

	p = retry.DefaultPolicy()
	p.BackoffType = "quadratic"
	assert.ErrorIs(t, p.Validate(), retry.ErrInvalidBackoffType)
}

func TestLinearBackoff(t *testing.T) {
	var delays []time.Duration
	p := recordingPolicy(&delays)
	p.BackoffType = retry.BackoffTypeLinear
	p.MaxAttempts = 4

	_, _ = retry.Do(context.Background(), p,
		func(context.Context) (int, error) {
			return 0, &retry.StatusError{Code: 500}
		})

	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 3 * time.Second,
	}, delays)
}
