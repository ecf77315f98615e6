package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucketKey struct {
	identity string
	action   string
}

type bucket struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is an in-process fixed-window limiter. A single mutex
// serializes every check so concurrent requests never lose an increment.
type MemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[bucketKey]*bucket
}

// NewMemoryLimiter creates a limiter. Non-positive values fall back to 20 per 60s.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[bucketKey]*bucket),
	}
}

// WithClock replaces the time source. Used by tests.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

func (l *MemoryLimiter) Admit(_ context.Context, identity, action string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := bucketKey{identity: identity, action: action}
	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{count: 1, resetAt: now.Add(l.window)}
		l.buckets[key] = b
		return Decision{Allowed: true, Count: 1, Limit: l.limit}, nil
	}

	b.count++
	d := Decision{Allowed: b.count <= l.limit, Count: b.count, Limit: l.limit}
	if !d.Allowed {
		d.RetryAfter = b.resetAt.Sub(now)
	}
	return d, nil
}

// Sweep drops buckets whose window has elapsed and returns how many were removed.
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired buckets every window until ctx is done.
func (l *MemoryLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (l *MemoryLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
