package lending

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultMaxAttempts   = 3
	defaultBaseDelay     = 20 * time.Millisecond
	defaultJitterPercent = 30
)

// RetryPolicy bounds how often a unit of work is re-run after an ErrConflict.
// Delays grow exponentially from BaseDelay with JitterPercent of noise.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	JitterPercent uint64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   defaultMaxAttempts,
		BaseDelay:     defaultBaseDelay,
		JitterPercent: defaultJitterPercent,
	}
}

func (p RetryPolicy) backoff() retry.Backoff {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Millisecond
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := retry.NewExponential(base)
	// go-retry panics on a zero jitter percent.
	if jitter := min(p.JitterPercent, 100); jitter > 0 {
		b = retry.WithJitterPercent(jitter, b)
	}
	return retry.WithMaxRetries(uint64(attempts-1), b)
}

// run calls fn until it succeeds, fails with a non-conflict error, or the
// attempts are used up. Only ErrConflict is retried; the last error is returned.
func (p RetryPolicy) run(ctx context.Context, onRetry func(attempt int, err error), fn func(ctx context.Context) error) error {
	attempt := 0
	return retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if errors.Is(err, ErrConflict) {
			if onRetry != nil && attempt < p.MaxAttempts {
				onRetry(attempt, err)
			}
			return retry.RetryableError(err)
		}
		return err
	})
}
