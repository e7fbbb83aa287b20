package adjust

import (
	"context"
	"fmt"
	"time"

	"factorflow/observability"
)

// RetryConfig controls retry behavior for transient store failures
// during a batch run.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries:     3,
	InitialBackoff: 100 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
}

// withRetry runs fn with exponential backoff. It returns the last error
// once the attempts are exhausted, or the context error if the caller
// gives up while waiting.
func withRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
			case <-time.After(backoff):
			}

			backoff *= 2
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt < cfg.MaxRetries {
			observability.Debug("retrying after store failure",
				"attempt", attempt+1,
				"max_retries", cfg.MaxRetries,
				"error", err)
		}
	}

	return fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, lastErr)
}
