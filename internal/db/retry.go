package db

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls startup retry behavior with exponential backoff
// and jitter. Retries guard against the database coming up after the
// service does; query-time errors are never retried.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first
	// try. A value of 1 means no retries.
	MaxAttempts int

	// InitialBackoff is the base delay before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration.
	MaxBackoff time.Duration

	// Multiplier scales the backoff after each attempt.
	Multiplier float64

	// JitterFraction adds random jitter as a fraction of the computed
	// delay (0 = no jitter, 0.5 = ±50%).
	JitterFraction float64
}

func defaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

// withRetry executes fn until it succeeds or attempts run out. Context
// cancellation stops retries immediately.
func withRetry(ctx context.Context, cfg RetryConfig, what string, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg = defaultRetryConfig()
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt >= cfg.MaxAttempts-1 {
			break
		}

		zap.L().Warn("retrying",
			zap.String("component", "db"),
			zap.String("operation", what),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)

		timer := time.NewTimer(computeBackoff(attempt, cfg))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

func computeBackoff(attempt int, cfg RetryConfig) time.Duration {
	delay := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxBackoff) {
		delay = float64(cfg.MaxBackoff)
	}
	if cfg.JitterFraction > 0 {
		jitterRange := delay * cfg.JitterFraction
		delay += (rand.Float64()*2 - 1) * jitterRange
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
