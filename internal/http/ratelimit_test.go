package http

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()
	metrics := &securityMetrics{}

	for i := 1; i <= maxRequestsPerMinute; i++ {
		if !rl.allow("10.1.1.1", metrics) {
			t.Fatalf("request %d blocked below the limit", i)
		}
	}
	if rl.allow("10.1.1.1", metrics) {
		t.Fatal("request above the limit allowed")
	}
	if metrics.rateLimitHits != 1 {
		t.Fatalf("rateLimitHits = %d, want 1", metrics.rateLimitHits)
	}

	// Other clients have their own budget.
	if !rl.allow("10.1.1.2", metrics) {
		t.Fatal("unrelated client blocked")
	}
}

func TestRateLimiterCleanupRemovesStaleClients(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	rl.allow("10.1.1.1", nil)
	rl.allow("10.1.1.2", nil)

	rl.mu.Lock()
	for _, client := range rl.clients {
		client.lastRequest = client.lastRequest.Add(-11 * time.Minute)
	}
	rl.mu.Unlock()

	rl.cleanupStaleEntries()

	rl.mu.Lock()
	remaining := len(rl.clients)
	rl.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("stale clients remaining = %d", remaining)
	}
}
