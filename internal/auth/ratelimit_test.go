package auth

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	limiter := NewRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("key") {
			t.Errorf("request %d within burst should be allowed", i+1)
		}
	}
	if limiter.Allow("key") {
		t.Error("request over burst should be blocked")
	}
}

func TestRateLimiter_PerKeyIsolation(t *testing.T) {
	limiter := NewRateLimiter(1, 1)

	limiter.Allow("a")
	if limiter.Allow("a") {
		t.Error("key a should be exhausted")
	}
	if !limiter.Allow("b") {
		t.Error("key b should have its own bucket")
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	limiter := NewRateLimiter(1000, 1000)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			limiter.Allow(fmt.Sprintf("key-%d", n%10))
		}(i)
	}
	wg.Wait()

	if limiter.Len() != 10 {
		t.Errorf("Len() = %d, want 10", limiter.Len())
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewRateLimiter(10, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("stale")
	now = now.Add(10 * time.Minute)
	limiter.Allow("fresh")

	if removed := limiter.Cleanup(5 * time.Minute); removed != 1 {
		t.Errorf("Cleanup() = %d, want 1", removed)
	}
	if limiter.Len() != 1 {
		t.Errorf("Len() = %d, want 1", limiter.Len())
	}

	// A cleaned-up key starts with a fresh burst
	if !limiter.Allow("stale") {
		t.Error("first request after cleanup should be allowed")
	}
}
