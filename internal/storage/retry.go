package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// retry runs fn up to attempts times with exponential back-off starting at
// delay. It gives up early when ctx is done.
func retry(ctx context.Context, log *zap.Logger, op string, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		log.Warn("operation failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("backoff", delay),
			zap.Error(lastErr))
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, lastErr)
}
