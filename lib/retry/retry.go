package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Options struct {
	// MaxAttempts counts the first try, so 3 means "try, retry, retry".
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
}

// Permanent marks an error as non-retryable. Do returns it immediately.
// Configuration mistakes (an unmapped course code, a bad selector) go
// through here, retrying cannot fix them.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, the attempts are exhausted, or ctx is
// cancelled. The delay doubles from InitialDelay up to MaxDelay, no
// jitter. Failed attempts are logged as warnings with the attempt
// number; cancellation is never logged as a failure and is returned
// as the context's own error.
func Do[T any](ctx context.Context, name string, opts Options, op func() (T, error)) (T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = opts.InitialDelay
	policy.MaxInterval = opts.MaxDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0
	policy.Reset()

	maxRetries := uint64(0)
	if opts.MaxAttempts > 1 {
		maxRetries = uint64(opts.MaxAttempts - 1)
	}

	attempt := 0
	wrapped := backoff.WithContext(backoff.WithMaxRetries(policy, maxRetries), ctx)

	out, err := backoff.RetryNotifyWithData(
		func() (T, error) {
			attempt++
			return op()
		},
		wrapped,
		func(err error, next time.Duration) {
			slog.WarnContext(
				ctx, "operation failed, retrying",
				"op", name,
				"attempt", attempt,
				"next_delay", next,
				"err", err,
			)
		},
	)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		slog.WarnContext(
			ctx, "operation failed, giving up",
			"op", name,
			"attempts", attempt,
			"err", err,
		)
	}
	return out, err
}
