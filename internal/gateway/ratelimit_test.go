package gateway

import "testing"

func TestRateLimiter_DisabledWhenRPMNonPositive(t *testing.T) {
	r := NewRateLimiter(0, 1)
	if r.Enabled() {
		t.Fatal("expected Enabled() false for rpm=0")
	}
	for i := 0; i < 100; i++ {
		if !r.Allow("client-1") {
			t.Fatal("disabled limiter must always allow")
		}
	}
}

func TestRateLimiter_EnforcesBurst(t *testing.T) {
	r := NewRateLimiter(60, 2)
	if !r.Enabled() {
		t.Fatal("expected Enabled() true for rpm=60")
	}

	if !r.Allow("client-1") {
		t.Error("first call within burst should be allowed")
	}
	if !r.Allow("client-1") {
		t.Error("second call within burst should be allowed")
	}
	if r.Allow("client-1") {
		t.Error("third call exceeding burst should be denied")
	}
}

func TestRateLimiter_PerClientIsolation(t *testing.T) {
	r := NewRateLimiter(60, 1)

	if !r.Allow("a") {
		t.Fatal("client a first call should be allowed")
	}
	if r.Allow("a") {
		t.Fatal("client a second call should be denied")
	}
	if !r.Allow("b") {
		t.Error("client b should have its own independent bucket")
	}
}
