// Package seclog records security events from the caching layer as
// structured JSON lines.
//
// Events carry a fixed kind, a derived severity tier, and freeform
// details. The sink is append-only; retention is the consumer's concern.
package seclog
