package store

import (
	"context"
	"time"
)

// Backend limits this subsystem must respect on any key-value store.
const (
	// MaxValueBytes is the backend limit on encoded value size.
	MaxValueBytes = 25 << 20

	// WarnValueBytes is the soft threshold above which writes are logged
	// as warnings but still accepted.
	WarnValueBytes = 5 << 20

	// MaxTTL is the longest TTL the backend accepts; requested TTLs are
	// clamped to it.
	MaxTTL = 365 * 24 * time.Hour
)

// ListOptions selects a page of keys from the backend namespace.
type ListOptions struct {
	// Prefix restricts the listing to keys with this prefix.
	Prefix string

	// Cursor resumes a previous listing. Empty starts from the beginning.
	Cursor string

	// Limit caps the page size. Backends may impose a smaller cap.
	Limit int
}

// ListResult is one page of a key listing.
type ListResult struct {
	Keys     []string
	Cursor   string
	Complete bool
}

// Backend is the raw key-value store contract consumed by the Store.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: all methods must honor cancellation/deadlines.
// - Get returns (nil, nil) on miss; a nil value never aliases an empty one.
// - TTL is advisory expiry enforcement; the Store layers its own on top.
type Backend interface {
	// Get retrieves raw bytes. Returns (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores raw bytes with the given TTL.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Idempotent.
	Delete(ctx context.Context, key string) error

	// List returns one page of keys; callers paginate via Cursor until
	// Complete is true.
	List(ctx context.Context, opts ListOptions) (ListResult, error)
}
