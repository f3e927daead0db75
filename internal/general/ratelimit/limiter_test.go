package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"commuto/internal/domain/fault"
)

// fixed clock the tests can move by hand
func newTestLimiter(width time.Duration) (*Limiter, *time.Time) {
	l := New(width)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(time.Minute)

	for i := 0; i < 5; i++ {
		if err := l.Allow("u1", 5); err != nil {
			t.Fatalf("request %d denied: %v", i+1, err)
		}
	}
	err := l.Allow("u1", 5)
	if !fault.IsRateLimited(err) {
		t.Fatalf("6th request: err = %v", err)
	}
	fe, _ := fault.As(err)
	if fe.RetryAfter <= 0 || fe.RetryAfter > time.Minute {
		t.Errorf("retry after = %v", fe.RetryAfter)
	}
}

func TestWindowResets(t *testing.T) {
	l, now := newTestLimiter(time.Minute)

	for i := 0; i < 3; i++ {
		if err := l.Allow("u1", 3); err != nil {
			t.Fatalf("fill: %v", err)
		}
	}
	if err := l.Allow("u1", 3); err == nil {
		t.Fatal("expected denial in the same window")
	}

	*now = now.Add(time.Minute)
	if err := l.Allow("u1", 3); err != nil {
		t.Errorf("after reset: %v", err)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(time.Minute)

	if err := l.Allow("u1", 1); err != nil {
		t.Fatalf("u1: %v", err)
	}
	if err := l.Allow("u2", 1); err != nil {
		t.Errorf("u2 should have its own window: %v", err)
	}
	if err := l.Allow("u1", 1); err == nil {
		t.Error("u1 second request should be denied")
	}
}

func TestExpiredWindowsArePurged(t *testing.T) {
	l, now := newTestLimiter(time.Minute)
	l.sweepAt = 10

	for i := 0; i < 10; i++ {
		if err := l.Allow(fmt.Sprintf("u%d", i), 5); err != nil {
			t.Fatalf("fill: %v", err)
		}
	}
	*now = now.Add(2 * time.Minute)

	// next insert trips the sweep and drops the stale windows
	if err := l.Allow("fresh", 5); err != nil {
		t.Fatalf("fresh: %v", err)
	}
	l.mu.Lock()
	n := len(l.windows)
	l.mu.Unlock()
	if n != 1 {
		t.Errorf("windows after purge = %d, want 1", n)
	}
}

func TestConcurrentAllowNeverOvercounts(t *testing.T) {
	l := New(time.Minute)

	const limit = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Allow("shared", limit); err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != limit {
		t.Errorf("granted = %d, want exactly %d", granted, limit)
	}
}
