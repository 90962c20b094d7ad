package kalshi

import (
	"context"
	"errors"
	"time"

	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

// RetryConfig controls backoff behaviour for rate-limited venue calls.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// withRetry runs fn, retrying only on RateLimitError with the venue's
// advertised retry-after when present, otherwise bounded exponential
// backoff. Any other error propagates immediately. This is the only layer
// that retries; callers must not retry independently.
func withRetry(ctx context.Context, cfg RetryConfig, logger *zap.Logger, op string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rateErr *types.RateLimitError
		if !errors.As(err, &rateErr) {
			return err
		}

		lastErr = err
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := rateErr.RetryAfter
		if delay <= 0 {
			delay = backoffDelay(cfg, attempt)
		}

		logger.Warn("rate-limited-retrying",
			zap.String("op", op),
			zap.Duration("delay", delay),
			zap.Int("attempt", attempt+1),
			zap.Int("max-attempts", cfg.MaxAttempts))

		RetriesTotal.WithLabelValues(op).Inc()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	logger.Error("max-retries-exceeded", zap.String("op", op), zap.Error(lastErr))
	return lastErr
}

func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := cfg.BaseDelay << uint(attempt)
	if delay > cfg.MaxDelay || delay <= 0 {
		return cfg.MaxDelay
	}
	return delay
}
