package ratelimit

import (
	"sync"
	"time"
)

// Config configures a Limiter.
type Config struct {
	// MaxRequests is the number of requests allowed per window.
	// Default: 100
	MaxRequests int

	// Window is the fixed window length. A window starts on the first
	// observation of an identifier and resets wholesale once elapsed.
	// Default: 1 minute
	Window time.Duration

	// CleanupInterval controls how often stale entries are purged.
	// Default: 1 minute
	CleanupInterval time.Duration
}

// entry tracks one identifier's current window.
type entry struct {
	count        int
	firstAttempt time.Time
	lastAttempt  time.Time
}

// Status is a read-only projection of an identifier's window state.
type Status struct {
	Limited   bool
	Remaining int
	ResetIn   time.Duration
	Count     int
}

// Limiter is a per-identifier fixed-window request counter.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Queries (Remaining, ResetAt, Status) never mutate state.
// - Close must be called on shutdown to stop the cleanup goroutine.
type Limiter struct {
	config Config

	mu      sync.Mutex
	entries map[string]*entry

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Limiter and starts its periodic cleanup goroutine.
func New(config Config) *Limiter {
	// Apply defaults
	if config.MaxRequests <= 0 {
		config.MaxRequests = 100
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}

	l := &Limiter{
		config:  config,
		entries: make(map[string]*entry),
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Preset limiters used by the cache layer. Each call returns an
// independent instance sharing no state.

// NewWriteLimiter returns the cache-write preset: 100 requests per minute
// per key.
func NewWriteLimiter() *Limiter {
	return New(Config{MaxRequests: 100, Window: time.Minute})
}

// NewReadLimiter returns the cache-read preset: 1000 requests per minute
// per key.
func NewReadLimiter() *Limiter {
	return New(Config{MaxRequests: 1000, Window: time.Minute})
}

// NewSuspiciousLimiter returns the preset for suspicious-activity
// identifiers: 10 requests per 5 minutes.
func NewSuspiciousLimiter() *Limiter {
	return New(Config{MaxRequests: 10, Window: 5 * time.Minute})
}

// Limited records an observation of id and reports whether it is over the
// limit. The first observation starts a window and never limits. Once an
// identifier is limited, further observations bump lastAttempt but do not
// grow the count, so a sustained attacker cannot inflate the counter.
func (l *Limiter) Limited(id string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok || now.Sub(e.firstAttempt) > l.config.Window {
		l.entries[id] = &entry{count: 1, firstAttempt: now, lastAttempt: now}
		return false
	}

	e.lastAttempt = now
	if e.count >= l.config.MaxRequests {
		return true
	}
	e.count++
	return false
}

// Remaining reports how many observations id has left in its current
// window without recording one. An elapsed or absent window reports the
// full allowance.
func (l *Limiter) Remaining(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok || time.Since(e.firstAttempt) > l.config.Window {
		return l.config.MaxRequests
	}
	remaining := l.config.MaxRequests - e.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetAt returns when id's current window resets. For an absent or
// elapsed window it returns the zero time.
func (l *Limiter) ResetAt(id string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok || time.Since(e.firstAttempt) > l.config.Window {
		return time.Time{}
	}
	return e.firstAttempt.Add(l.config.Window)
}

// Status returns a snapshot of id's window without recording an
// observation. An elapsed window reads as freshly reset.
func (l *Limiter) Status(id string) Status {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok || now.Sub(e.firstAttempt) > l.config.Window {
		return Status{Remaining: l.config.MaxRequests}
	}

	remaining := l.config.MaxRequests - e.count
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Limited:   e.count >= l.config.MaxRequests,
		Remaining: remaining,
		ResetIn:   e.firstAttempt.Add(l.config.Window).Sub(now),
		Count:     e.count,
	}
}

// Reset discards id's window.
func (l *Limiter) Reset(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, id)
}

// Clear discards all windows.
func (l *Limiter) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]*entry)
}

// Len returns the number of tracked identifiers.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close stops the cleanup goroutine and discards all state. It is
// idempotent and must be called on shutdown to avoid leaking the timer.
func (l *Limiter) Close() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	l.Clear()
}

// cleanupLoop purges entries whose window started more than twice the
// window length ago, bounding memory regardless of traffic shape.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.purgeStale()
		}
	}
}

func (l *Limiter) purgeStale() {
	cutoff := time.Now().Add(-2 * l.config.Window)

	l.mu.Lock()
	defer l.mu.Unlock()
	for id, e := range l.entries {
		if e.firstAttempt.Before(cutoff) {
			delete(l.entries, id)
		}
	}
}
