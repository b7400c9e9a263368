// Package keyguard sanitizes and validates cache key strings.
//
// Key components pass through a strip-first sanitizer (traversal
// sequences, control bytes, a blocklisted character class, dangerous
// extension suffixes) and full keys are validated against the backend's
// byte limit. Every rejection emits a blocked_write security event.
package keyguard
