package store

import (
	"errors"
	"testing"
	"time"
)

// TestEntryRoundTrip verifies encode/decode of the envelope.
func TestEntryRoundTrip(t *testing.T) {
	encoded, err := encodeEntry([]byte(`{"slug":"home"}`), 30*time.Second)
	if err != nil {
		t.Fatalf("encodeEntry error: %v", err)
	}

	entry, err := decodeEntry(encoded)
	if err != nil {
		t.Fatalf("decodeEntry error: %v", err)
	}
	if string(entry.Data) != `{"slug":"home"}` {
		t.Errorf("data = %s", entry.Data)
	}
	if entry.TTL != 30 {
		t.Errorf("ttl = %d, want 30", entry.TTL)
	}
	if entry.Timestamp == 0 {
		t.Error("expected a timestamp")
	}
}

// TestDecodeEntry_Corrupt verifies strict decoding of malformed envelopes.
func TestDecodeEntry_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "not-json"},
		{"empty object", "{}"},
		{"missing timestamp", `{"data":{"a":1},"ttl":60}`},
		{"missing ttl", `{"data":{"a":1},"timestamp":1}`},
		{"missing data", `{"timestamp":1,"ttl":60}`},
		{"null data", `{"data":null,"timestamp":1,"ttl":60}`},
		{"mistyped timestamp", `{"data":{"a":1},"timestamp":"now","ttl":60}`},
		{"mistyped ttl", `{"data":{"a":1},"timestamp":1,"ttl":"long"}`},
		{"array envelope", `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeEntry([]byte(tt.raw))
			if !errors.Is(err, ErrCorruptEntry) {
				t.Errorf("decodeEntry(%q) = %v, want ErrCorruptEntry", tt.raw, err)
			}
		})
	}
}

// TestEntryExpired verifies the logical expiry rule now - ts > ttl*1000ms.
func TestEntryExpired(t *testing.T) {
	now := time.Now()
	e := Entry{Data: []byte(`1`), Timestamp: now.Add(-61 * time.Second).UnixMilli(), TTL: 60}
	if !e.expired(now) {
		t.Error("entry older than ttl should be expired")
	}

	e.Timestamp = now.Add(-59 * time.Second).UnixMilli()
	if e.expired(now) {
		t.Error("entry within ttl should not be expired")
	}
}
