// Package ratelimit provides a per-identifier fixed-window request
// counter.
//
// A window starts on the first observation of an identifier and resets
// wholesale once it elapses. Read-only queries never mutate state, and a
// periodic cleanup goroutine bounds memory by purging stale identifiers.
package ratelimit
