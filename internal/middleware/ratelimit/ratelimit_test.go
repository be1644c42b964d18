package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinBudget(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 3, CleanupInterval: time.Minute})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.5") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.5") {
		t.Fatal("request over budget should be rejected")
	}
	if got := rl.GetMetrics().TotalHits; got != 1 {
		t.Fatalf("rejected counter = %d, want 1", got)
	}

	// Other clients keep their own budget
	if !rl.Allow("10.0.0.6") {
		t.Fatal("separate client should be allowed")
	}
	if got := rl.ActiveClients(); got != 2 {
		t.Fatalf("active clients = %d, want 2", got)
	}
}

func TestBudgetResetsAfterQuietMinute(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	if !rl.Allow("10.0.0.5") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("10.0.0.5") {
		t.Fatal("second request should be rejected")
	}

	rl.mu.Lock()
	rl.clients["10.0.0.5"].lastRequest = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	if !rl.Allow("10.0.0.5") {
		t.Fatal("budget should reset after a quiet minute")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}
