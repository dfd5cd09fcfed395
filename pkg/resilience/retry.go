package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryConfig controls Retry. Retryable, when set, decides whether an
// error is worth another attempt; errors it rejects are returned at once.
type RetryConfig struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Jitter spreads each delay by up to this fraction in either direction.
	Jitter    float64
	Retryable func(error) bool
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 2 * time.Second
	}
	if c.Jitter <= 0 {
		c.Jitter = 0.1
	}
	return c
}

// Delay returns the pause after the given failed attempt (1-based): the
// base delay doubled per attempt, jittered and capped at MaxDelay.
func (c RetryConfig) Delay(attempt int) time.Duration {
	c = c.withDefaults()
	d := c.BaseDelay << min(max(attempt-1, 0), 30)
	if d <= 0 || d > c.MaxDelay {
		d = c.MaxDelay
	}
	spread := float64(d) * c.Jitter * (2*rand.Float64() - 1)
	return min(c.MaxDelay, max(0, d+time.Duration(spread)))
}

// Retry calls fn until it succeeds, the attempts run out or ctx ends.
// Connecting to an optional service uses it so that a service still
// starting up is not reported as unavailable.
func Retry(ctx context.Context, name string, cfg RetryConfig, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()
	logger := slog.Default().With("component", "retry", "operation", name)

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return err
		}
		if attempt == cfg.Attempts {
			return fmt.Errorf("%s failed after %d attempts: %w", name, cfg.Attempts, err)
		}

		delay := cfg.Delay(attempt)
		logger.Debug("attempt failed, retrying", "attempt", attempt, "error", err, "delay", delay)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: retry abandoned: %w", name, ctx.Err())
		}
	}
}
