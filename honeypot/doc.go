// Package honeypot classifies cache keys against decoy keys and
// suspicious content patterns, and synthesizes trap payloads to serve to
// scanners in place of real cache content.
//
// Classification is pure: a Detection is derived from the key string
// alone and never persisted.
package honeypot
