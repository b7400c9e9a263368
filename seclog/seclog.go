package seclog

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Event identifies the kind of security event being recorded.
type Event string

// Security event kinds emitted by the caching layer.
const (
	EventHoneypotTriggered Event = "honeypot_triggered"
	EventMaliciousKey      Event = "malicious_key_detected"
	EventRateLimitExceeded Event = "rate_limit_exceeded"
	EventSuspiciousPattern Event = "suspicious_pattern_detected"
	EventBlockedWrite      Event = "blocked_write"
	EventAuditCompleted    Event = "audit_completed"
)

// Severity is the tier assigned to an event kind for downstream triage.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// SeverityFor maps an event kind to its severity tier. Unknown kinds are
// reported as info.
func SeverityFor(event Event) Severity {
	switch event {
	case EventHoneypotTriggered, EventMaliciousKey:
		return SeverityCritical
	case EventRateLimitExceeded, EventSuspiciousPattern:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Logger records security events as structured JSON lines.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging is best-effort and must never panic; failures to
//   serialize or write an event are swallowed.
type Logger interface {
	// Log appends a security event with freeform details to the sink.
	Log(ctx context.Context, event Event, details map[string]any)
}

// jsonLogger writes one JSON object per event to an io.Writer.
type jsonLogger struct {
	mu     sync.Mutex
	writer io.Writer
}

// New creates a Logger that writes JSON lines to stderr.
func New() Logger {
	return NewWithWriter(os.Stderr)
}

// NewWithWriter creates a Logger that writes JSON lines to w.
func NewWithWriter(w io.Writer) Logger {
	return &jsonLogger{writer: w}
}

func (l *jsonLogger) Log(_ context.Context, event Event, details map[string]any) {
	entry := make(map[string]any, len(details)+3)
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["event"] = string(event)
	entry["severity"] = string(SeverityFor(event))
	for k, v := range details {
		entry[k] = v
	}

	// json.Marshal rejects cyclic or otherwise unserializable values; the
	// entry is dropped rather than allowing a logging failure to surface.
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.writer.Write(data)
}

// nopLogger discards all events.
type nopLogger struct{}

func (nopLogger) Log(context.Context, Event, map[string]any) {}

// Nop returns a Logger that discards every event. Components constructed
// without an explicit sink use this.
func Nop() Logger {
	return nopLogger{}
}

// Ensure implementations satisfy Logger
var (
	_ Logger = (*jsonLogger)(nil)
	_ Logger = nopLogger{}
)
