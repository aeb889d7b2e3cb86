// Package retry wraps fallible remote calls with bounded exponential-backoff
// retry and failure classification
//
// The policy retries connectivity and timeout faults, server errors, and
// rate-limit rejections. All other faults are terminal and propagate
// immediately without consuming remaining attempts
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"time"
)

type (
	// Policy controls how a remote call is retried: total attempt budget,
	// backoff shape, and backoff bounds
	Policy struct {
		// Sleep overrides the delay between attempts; used by tests to
		// observe induced delays without waiting them out
		Sleep       func(context.Context, time.Duration) error
		BackoffType string
		MaxAttempts int
		InitBackoff time.Duration
		MaxBackoff  time.Duration
	}

	// StatusError is a remote fault carrying an HTTP-equivalent status
	// code, used to classify the fault as retryable or terminal
	StatusError struct {
		URL  string
		Code int
	}

	backoffCalculator func(base time.Duration, attempt int) time.Duration
)

const (
	BackoffTypeFixed       = "fixed"
	BackoffTypeLinear      = "linear"
	BackoffTypeExponential = "exponential"

	DefaultMaxAttempts = 3
	DefaultInitBackoff = 1 * time.Second
	DefaultMaxBackoff  = 10 * time.Second

	MaxAttemptsLimit = 100
	MaxBackoffLimit  = 24 * time.Hour
)

var (
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
	ErrInvalidInitBackoff = errors.New("initial backoff must be positive")
	ErrMaxBackoffTooSmall = errors.New(
		"max backoff must be >= initial backoff",
	)
	ErrInvalidBackoffType = errors.New("invalid backoff type")
)

var backoffCalculators = map[string]backoffCalculator{
	BackoffTypeFixed: func(base time.Duration, _ int) time.Duration {
		return base
	},
	BackoffTypeLinear: func(base time.Duration, attempt int) time.Duration {
		return base * time.Duration(attempt+1)
	},
	BackoffTypeExponential: func(
		base time.Duration, attempt int,
	) time.Duration {
		multiplier := math.Pow(2, float64(attempt))
		return time.Duration(float64(base) * multiplier)
	},
}

// DefaultPolicy returns the standard outbound-call policy: three attempts,
// exponential backoff from one second, capped at ten seconds
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		InitBackoff: DefaultInitBackoff,
		MaxBackoff:  DefaultMaxBackoff,
		BackoffType: BackoffTypeExponential,
	}
}

// Validate checks that the policy's settings are usable
func (p *Policy) Validate() error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if p.InitBackoff <= 0 {
		return ErrInvalidInitBackoff
	}
	if p.MaxBackoff < p.InitBackoff {
		return ErrMaxBackoffTooSmall
	}
	if _, ok := backoffCalculators[p.BackoffType]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidBackoffType, p.BackoffType)
	}
	return nil
}

// Do invokes op under the policy, retrying retryable failures with backoff
// up to the attempt budget. The final attempt's failure propagates to the
// caller unchanged
func Do[T any](
	ctx context.Context, p Policy, op func(context.Context) (T, error),
) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == p.MaxAttempts {
			break
		}

		delay := p.backoffFor(attempt)
		slog.Warn("Retrying after transient fault",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.MaxAttempts),
			slog.Duration("backoff", delay),
			slog.String("error", err.Error()))

		if err := p.sleep(ctx, delay); err != nil {
			return zero, lastErr
		}
	}

	slog.Error("Remote call failed",
		slog.Int("max_attempts", p.MaxAttempts),
		slog.String("error", lastErr.Error()))
	return zero, lastErr
}

// IsRetryable reports whether a failure is a connectivity/timeout fault or
// a remote fault whose status is a server error or rate limit
func IsRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError ||
			se.Code == http.StatusTooManyRequests
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	var oe *net.OpError
	return errors.As(err, &oe)
}

func (p Policy) backoffFor(attempt int) time.Duration {
	calculator, ok := backoffCalculators[p.BackoffType]
	if !ok {
		calculator = backoffCalculators[BackoffTypeExponential]
	}
	return min(calculator(p.InitBackoff, attempt-1), p.MaxBackoff)
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *StatusError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("HTTP %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.URL)
}
