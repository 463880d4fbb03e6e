package scheduler

import (
	"testing"
	"time"
)

func TestBackoffDelay_ExponentialGrowth(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: 30 * time.Second}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
	}
	for _, c := range cases {
		if got := backoffDelay(cfg, c.attempt); got != c.want {
			t.Errorf("backoffDelay(attempt=%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestBackoffDelay_CapsAtMaxDelay(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 10, BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	if got := backoffDelay(cfg, 10); got != cfg.MaxDelay {
		t.Errorf("backoffDelay(attempt=10) = %v, want capped at %v", got, cfg.MaxDelay)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxRetries != 3 || cfg.BaseDelay != time.Second || cfg.MaxDelay != 30*time.Second {
		t.Errorf("DefaultRetryConfig() = %+v", cfg)
	}
}
