package indexer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"starkScope/internal/events"
	"starkScope/internal/felt"
	"starkScope/internal/storage"
)

// retryPolicy bounds withRetry. Delays double after every failed attempt.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
}

// permanent reports errors that retrying cannot fix.
func permanent(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, storage.ErrInvalidInput) ||
		errors.Is(err, events.ErrInvalidEventData) ||
		errors.Is(err, felt.ErrInvalidHex)
}

func withRetry(ctx context.Context, policy retryPolicy, logger *zap.Logger, op string, fn func(context.Context) error) error {
	maxRetries := policy.maxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := policy.baseDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || permanent(err) {
			return err
		}
		logger.Warn("retrying", zap.String("op", op), zap.Int("attempt", attempt+1), zap.Duration("delay", delay), zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
