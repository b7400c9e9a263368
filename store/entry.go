package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Entry is the versioned envelope wrapped around every JSON-mode value.
// The embedded timestamp provides a logical expiry layer independent of
// the backend's own TTL enforcement.
type Entry struct {
	// Data is the serialized caller value. Never null or absent.
	Data json.RawMessage `json:"data"`

	// Timestamp is the write time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`

	// TTL is the entry's time-to-live in whole seconds.
	TTL int64 `json:"ttl"`
}

// entryWire mirrors Entry with pointer fields so absent keys are
// distinguishable from zero values during strict decoding.
type entryWire struct {
	Data      *json.RawMessage `json:"data"`
	Timestamp *int64           `json:"timestamp"`
	TTL       *int64           `json:"ttl"`
}

// encodeEntry wraps serialized data in an envelope stamped now.
func encodeEntry(data []byte, ttl time.Duration) ([]byte, error) {
	e := Entry{
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
		TTL:       int64(ttl / time.Second),
	}
	return json.Marshal(e)
}

// decodeEntry strictly parses an envelope. Any parse failure, missing or
// mistyped field, or null data yields an error; callers treat the entry
// as corrupt and evict it.
func decodeEntry(raw []byte) (Entry, error) {
	var w entryWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	if w.Data == nil || w.Timestamp == nil || w.TTL == nil {
		return Entry{}, fmt.Errorf("%w: missing envelope field", ErrCorruptEntry)
	}
	data := *w.Data
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Entry{}, fmt.Errorf("%w: null data", ErrCorruptEntry)
	}
	return Entry{Data: data, Timestamp: *w.Timestamp, TTL: *w.TTL}, nil
}

// expired reports whether the envelope's logical TTL has elapsed at now.
func (e Entry) expired(now time.Time) bool {
	return now.UnixMilli()-e.Timestamp > e.TTL*1000
}
