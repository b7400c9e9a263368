// Package store provides a security-hardened cache store over a raw
// key-value backend.
//
// Every operation validates its key, classifies it against honeypot decoys
// and suspicious patterns, and applies per-key rate limits. JSON-mode
// values are wrapped in a versioned envelope whose embedded timestamp
// forms a logical expiry layer on top of the backend's own TTL; corrupted
// or expired entries are evicted on read. Named regions bind prefixes and
// TTL policies to one shared store.
package store
