package store

import "errors"

// Sentinel errors for cache store operations.
var (
	// ErrNilBackend is returned when a Store is constructed without a backend.
	ErrNilBackend = errors.New("store: backend is nil")

	// ErrNilValue is returned when a nil or empty value is written.
	ErrNilValue = errors.New("store: value is nil or empty")

	// ErrHoneypotWrite is returned when a write targets a honeypot key.
	ErrHoneypotWrite = errors.New("store: write to honeypot key forbidden")

	// ErrSuspiciousWrite is returned when a write targets a suspicious key
	// and the store is configured to block such writes.
	ErrSuspiciousWrite = errors.New("store: write to suspicious key blocked")

	// ErrRateLimited is returned when the write rate limit is exceeded.
	ErrRateLimited = errors.New("store: rate limit exceeded")

	// ErrSerialization is returned when a value fails to serialize or the
	// serialized form does not round-trip.
	ErrSerialization = errors.New("store: value serialization failed")

	// ErrValueTooLarge is returned when an encoded value exceeds the
	// backend size limit.
	ErrValueTooLarge = errors.New("store: value exceeds size limit")

	// ErrCorruptEntry marks an envelope that failed integrity checks.
	// Corrupt entries are self-healed (deleted) on read, never surfaced.
	ErrCorruptEntry = errors.New("store: corrupt cache entry")
)
