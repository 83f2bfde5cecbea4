package httpx

import (
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	if !rl.allow("a") || !rl.allow("a") {
		t.Fatal("first two requests must pass")
	}
	if rl.allow("a") {
		t.Fatal("third request in the window must be rejected")
	}
	if !rl.allow("b") {
		t.Fatal("another client must have its own window")
	}
}

func TestRateLimiterEvictsExpiredWindows(t *testing.T) {
	rl := NewRateLimiter(5, 10*time.Millisecond)

	for _, key := range []string{"a", "b", "c"} {
		if !rl.allow(key) {
			t.Fatalf("allow(%q) rejected", key)
		}
	}
	time.Sleep(20 * time.Millisecond)

	if !rl.allow("d") {
		t.Fatal("allow(d) rejected")
	}
	rl.mu.Lock()
	n := len(rl.windows)
	rl.mu.Unlock()
	if n != 1 {
		t.Fatalf("expired windows not evicted, %d entries remain", n)
	}
}
