package fetch

import (
	"context"
	"log/slog"
	"time"
)

// retryConfig controls bounded backoff for transient upstream failures.
type retryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// transientRetry matches the listing call's known failure mode: 3 attempts,
// 0.8s initial wait doubling, capped at 3s.
var transientRetry = retryConfig{
	MaxAttempts: 3,
	InitialWait: 800 * time.Millisecond,
	MaxWait:     3 * time.Second,
	Multiplier:  2.0,
}

// retryDo retries fn while it fails with KindTransient. Any other kind
// surfaces immediately, as does context cancellation.
func retryDo[T any](ctx context.Context, rc retryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	wait := rc.InitialWait
	for attempt := 1; attempt <= rc.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if KindOf(err) != KindTransient || attempt == rc.MaxAttempts {
			return zero, err
		}

		slog.Debug("Retrying after transient failure", "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return zero, ctx.Err()
		}

		wait = time.Duration(float64(wait) * rc.Multiplier)
		if wait > rc.MaxWait {
			wait = rc.MaxWait
		}
	}
	return zero, lastErr
}
