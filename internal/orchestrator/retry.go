package orchestrator

import (
	"context"
	"log/slog"
	"time"
)

// retryDelays is the capped exponential backoff schedule for
// TransientIoError (§7): 200ms, 1s, 5s across 3 attempts.
var retryDelays = []time.Duration{200 * time.Millisecond, 1 * time.Second, 5 * time.Second}

// withRetry runs fn, retrying on a *TransientIoError per retryDelays.
// Any other error returns immediately without retrying. If every attempt
// is exhausted, the last TransientIoError is wrapped in a JobError.
func withRetry(ctx context.Context, logger *slog.Logger, step string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= len(retryDelays); attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		transient, ok := err.(*TransientIoError)
		if !ok {
			return err
		}
		lastErr = transient

		if attempt == len(retryDelays) {
			break
		}
		logger.Warn("transient io error, retrying", "step", step, "attempt", attempt+1, "delay", retryDelays[attempt], "error", transient)
		select {
		case <-time.After(retryDelays[attempt]):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return &JobError{Step: step, Err: lastErr}
}
