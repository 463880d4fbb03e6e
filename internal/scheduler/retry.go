package scheduler

import "time"

// RetryConfig controls the backoff CronConfig.ToRetryConfig (internal/config)
// hands to the scheduler for job-level retry, mirroring the
// providers.RetryConfig shape used for LLM call retry but kept as its own
// type so this package never has to import internal/config (which imports
// this package for its default).
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig matches the teacher's cron job retry defaults: up to
// 3 retries, exponential backoff starting at 1s, capped at 30s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := cfg.BaseDelay << uint(attempt)
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}
