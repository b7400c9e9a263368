package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultListLimit caps List page sizes when callers request none.
const DefaultListLimit = 1000

// MemoryBackend is an in-memory Backend implementation with per-key TTL
// and cursor-paginated listing. Suitable for tests and single-instance
// deployments.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	stop     chan struct{}
	stopOnce sync.Once
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryBackend creates a MemoryBackend and starts a janitor goroutine
// that evicts expired entries every minute. Close stops the janitor.
func NewMemoryBackend() *MemoryBackend {
	b := &MemoryBackend{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
	}
	go b.janitor(time.Minute)
	return b
}

// Get retrieves raw bytes, lazily evicting an expired entry.
func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	e, ok := b.entries[key]
	b.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		b.evictIfExpired(key)
		return nil, nil
	}

	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, nil
}

// evictIfExpired deletes key only if its entry is still expired at the
// time the write lock is held. A Put racing the expiry observation in Get
// replaces the entry, and the fresh value must survive.
func (b *MemoryBackend) evictIfExpired(key string) {
	now := time.Now()
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.entries[key]; ok && !e.expiresAt.IsZero() && now.After(e.expiresAt) {
		delete(b.entries, key)
	}
}

// Put stores raw bytes. TTL <= 0 stores without expiry.
func (b *MemoryBackend) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: make([]byte, len(value))}
	copy(e.value, value)
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}

	b.mu.Lock()
	b.entries[key] = e
	b.mu.Unlock()
	return nil
}

// Delete removes a key. Idempotent.
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.entries, key)
	b.mu.Unlock()
	return nil
}

// List returns one sorted page of live keys. The cursor is the last key of
// the previous page.
func (b *MemoryBackend) List(_ context.Context, opts ListOptions) (ListResult, error) {
	limit := opts.Limit
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

	now := time.Now()
	b.mu.RLock()
	keys := make([]string, 0, len(b.entries))
	for k, e := range b.entries {
		if opts.Prefix != "" && !strings.HasPrefix(k, opts.Prefix) {
			continue
		}
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			continue
		}
		if opts.Cursor != "" && k <= opts.Cursor {
			continue
		}
		keys = append(keys, k)
	}
	b.mu.RUnlock()

	sort.Strings(keys)

	result := ListResult{Complete: true}
	if len(keys) > limit {
		keys = keys[:limit]
		result.Cursor = keys[len(keys)-1]
		result.Complete = false
	}
	result.Keys = keys
	return result, nil
}

// Len returns the number of stored entries, including not-yet-evicted
// expired ones.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Close stops the janitor goroutine. Idempotent.
func (b *MemoryBackend) Close() {
	b.stopOnce.Do(func() {
		close(b.stop)
	})
}

func (b *MemoryBackend) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			now := time.Now()
			b.mu.Lock()
			for k, e := range b.entries {
				if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
					delete(b.entries, k)
				}
			}
			b.mu.Unlock()
		}
	}
}

// Ensure MemoryBackend implements Backend
var _ Backend = (*MemoryBackend)(nil)
