package ratelimit

import (
	"sync"
	"time"

	"commuto/internal/domain/fault"
)

// window tracks request counts inside one fixed interval.
type window struct {
	count   int
	resetAt time.Time
}

// Limiter is a process-local fixed-window rate limiter. Counts reset at
// window boundaries, so a burst at the edge can see up to 2x the quota
// across two adjacent windows. That is accepted behavior.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	width   time.Duration
	now     func() time.Time

	sweepAt int // lazy purge threshold
}

// New creates a limiter with the given window width.
func New(width time.Duration) *Limiter {
	if width <= 0 {
		width = time.Minute
	}
	return &Limiter{
		windows: make(map[string]*window),
		width:   width,
		now:     time.Now,
		sweepAt: 1024,
	}
}

// Allow records one request under key and reports whether it fits the
// limit. When denied it returns a classified rate-limit error carrying
// the time until the window resets.
func (l *Limiter) Allow(key string, limit int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		if len(l.windows) >= l.sweepAt {
			l.purgeLocked(now)
		}
		l.windows[key] = &window{count: 1, resetAt: now.Add(l.width)}
		return nil
	}

	if w.count >= limit {
		return fault.RateLimited(w.resetAt.Sub(now))
	}
	w.count++
	return nil
}

// purgeLocked drops windows whose reset time has passed. Caller holds mu.
func (l *Limiter) purgeLocked(now time.Time) {
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
}
