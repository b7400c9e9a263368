package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/cacheguard/honeypot"
	"github.com/jonwraymond/cacheguard/keyguard"
	"github.com/jonwraymond/cacheguard/ratelimit"
	"github.com/jonwraymond/cacheguard/seclog"
)

// DefaultTTL applies when a call specifies none.
const DefaultTTL = time.Hour

// clearLogEvery controls bulk-delete progress logging.
const clearLogEvery = 100

// Config configures a Store.
type Config struct {
	// DefaultTTL applies when an operation specifies no TTL.
	// Default: 1 hour
	DefaultTTL time.Duration

	// BlockSuspiciousWrites rejects writes whose raw key matches a
	// suspicious pattern. Exact honeypot matches are always rejected.
	// Default: false (log and continue)
	BlockSuspiciousWrites bool

	// CoalesceFallbacks collapses concurrent GetOrSet misses for the same
	// key into a single fallback invocation. Off by default: fallbacks
	// are expected to be idempotent and cheap relative to cache benefit.
	CoalesceFallbacks bool

	// Metrics, when set, enables cache instrumentation.
	Metrics *Metrics

	// Tracer, when set, wraps GetOrSet fallbacks in a span.
	Tracer trace.Tracer
}

// Options adjusts a single Store operation. The zero value selects the
// store defaults; resolveOptions merges them exactly once per call.
type Options struct {
	// Prefix is the region prefix joined ahead of the key component.
	Prefix string

	// TTL overrides the store default for this write.
	TTL time.Duration

	// Raw bypasses the JSON envelope; values are stored verbatim.
	Raw bool
}

// Store wraps a Backend with key validation, honeypot traps, rate
// limiting, and a versioned entry envelope.
type Store struct {
	backend Backend
	config  Config

	guard  *keyguard.Guard
	log    seclog.Logger
	tracer trace.Tracer

	readLimit  *ratelimit.Limiter
	writeLimit *ratelimit.Limiter
	suspicious *ratelimit.Limiter

	group singleflight.Group
}

// New creates a Store around backend. A nil log falls back to seclog.Nop().
func New(backend Backend, cfg Config, log seclog.Logger) (*Store, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if log == nil {
		log = seclog.Nop()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer("cacheguard")
	}

	return &Store{
		backend:    backend,
		config:     cfg,
		guard:      keyguard.New(log),
		log:        log,
		tracer:     tracer,
		readLimit:  ratelimit.NewReadLimiter(),
		writeLimit: ratelimit.NewWriteLimiter(),
		suspicious: ratelimit.NewSuspiciousLimiter(),
	}, nil
}

// Close stops the rate limiters' cleanup goroutines.
func (s *Store) Close() {
	s.readLimit.Close()
	s.writeLimit.Close()
	s.suspicious.Close()
}

// resolveOptions merges per-call options with store defaults.
func (s *Store) resolveOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = s.config.DefaultTTL
	}
	if opts.TTL > MaxTTL {
		opts.TTL = MaxTTL
	}
	return opts
}

// Get retrieves the value stored under key. It returns (nil, nil) on miss,
// on validation failure, and on transient backend errors: the read path
// degrades to a miss rather than surfacing operational noise.
//
// The raw key is classified before any sanitization. An exact honeypot
// match never touches the backend; the caller receives a synthesized trap
// payload instead.
func (s *Store) Get(ctx context.Context, key string, opts Options) ([]byte, error) {
	start := time.Now()
	defer s.config.Metrics.recordDuration(ctx, "get", start)
	opts = s.resolveOptions(opts)

	if trap, isTrap := s.checkReadKey(ctx, key); isTrap {
		return trap, nil
	}

	if s.readLimit.Limited("read:" + key) {
		// Read limiting is advisory telemetry, not enforcement.
		s.config.Metrics.recordRateLimited(ctx, "get")
		s.log.Log(ctx, seclog.EventRateLimitExceeded, map[string]any{
			"key": key, "op": "get",
		})
	}

	fullKey, err := s.guard.BuildKey(ctx, key, opts.Prefix)
	if err != nil {
		// Invalid keys read as misses; keyguard has already logged.
		s.config.Metrics.recordMiss(ctx)
		return nil, nil
	}

	raw, err := s.backend.Get(ctx, fullKey)
	if err != nil {
		s.log.Log(ctx, seclog.EventAuditCompleted, map[string]any{
			"op": "get", "key": fullKey, "error": err.Error(), "outcome": "degraded_to_miss",
		})
		s.config.Metrics.recordMiss(ctx)
		return nil, nil
	}
	if raw == nil {
		s.config.Metrics.recordMiss(ctx)
		return nil, nil
	}

	if opts.Raw {
		s.config.Metrics.recordHit(ctx)
		return raw, nil
	}

	entry, err := decodeEntry(raw)
	if err != nil {
		// Self-healing: evict the corrupt entry so the next read
		// repopulates from the source of truth.
		_ = s.backend.Delete(ctx, fullKey)
		s.config.Metrics.recordMiss(ctx)
		return nil, nil
	}
	if entry.expired(time.Now()) {
		_ = s.backend.Delete(ctx, fullKey)
		s.config.Metrics.recordMiss(ctx)
		return nil, nil
	}

	s.config.Metrics.recordHit(ctx)
	return entry.Data, nil
}

// checkReadKey classifies the raw key for a read. For honeypot hits it
// returns a trap payload; pattern-only matches are logged and reads
// proceed normally.
func (s *Store) checkReadKey(ctx context.Context, key string) ([]byte, bool) {
	d := honeypot.Detect(key)
	switch {
	case d.IsHoneypot:
		limited := s.suspicious.Limited("honeypot:" + key)
		s.config.Metrics.recordHoneypot(ctx)
		s.log.Log(ctx, seclog.EventHoneypotTriggered, map[string]any{
			"key":          key,
			"severity":     honeypot.Severity(d),
			"rate_limited": limited,
		})
		trap, err := honeypot.NewTrap()
		if err != nil {
			// Trap synthesis failing must still not leak real state.
			return []byte("{}"), true
		}
		return trap, true
	case d.IsSuspicious:
		s.log.Log(ctx, seclog.EventSuspiciousPattern, map[string]any{
			"key":     key,
			"pattern": d.MatchedPattern,
			"op":      "get",
		})
	}
	return nil, false
}

// Set stores value under key. Validation and policy failures surface to
// the caller; generic backend I/O failures are logged and swallowed.
func (s *Store) Set(ctx context.Context, key string, value any, opts Options) error {
	start := time.Now()
	defer s.config.Metrics.recordDuration(ctx, "set", start)
	opts = s.resolveOptions(opts)

	if err := s.checkWriteKey(ctx, key); err != nil {
		return err
	}

	if s.writeLimit.Limited("write:" + key) {
		s.config.Metrics.recordRateLimited(ctx, "set")
		s.log.Log(ctx, seclog.EventRateLimitExceeded, map[string]any{
			"key": key, "op": "set",
		})
		return ErrRateLimited
	}

	if value == nil {
		return ErrNilValue
	}

	fullKey, err := s.guard.BuildKey(ctx, key, opts.Prefix)
	if err != nil {
		return err
	}

	encoded, err := s.encodeValue(ctx, key, value, opts)
	if err != nil {
		return err
	}

	if len(encoded) > MaxValueBytes {
		s.log.Log(ctx, seclog.EventBlockedWrite, map[string]any{
			"key": key, "reason": "value exceeds size limit", "size": len(encoded),
		})
		return fmt.Errorf("%w: %d bytes", ErrValueTooLarge, len(encoded))
	}
	if len(encoded) > WarnValueBytes {
		s.log.Log(ctx, seclog.EventAuditCompleted, map[string]any{
			"op": "set", "key": fullKey, "warning": "large value", "size": len(encoded),
		})
	}

	if err := s.backend.Put(ctx, fullKey, encoded, opts.TTL); err != nil {
		// Best-effort storage stance: a flaky backend degrades to
		// cache-miss behavior rather than failing the request.
		s.log.Log(ctx, seclog.EventAuditCompleted, map[string]any{
			"op": "set", "key": fullKey, "error": err.Error(), "outcome": "write_dropped",
		})
		return nil
	}
	return nil
}

// checkWriteKey enforces write policy on the raw key: honeypot writes are
// always forbidden; suspicious writes are logged, and blocked only when
// configured.
func (s *Store) checkWriteKey(ctx context.Context, key string) error {
	d := honeypot.Detect(key)
	switch {
	case d.IsHoneypot:
		s.suspicious.Limited("honeypot:" + key)
		s.config.Metrics.recordHoneypot(ctx)
		s.log.Log(ctx, seclog.EventBlockedWrite, map[string]any{
			"key":      key,
			"reason":   "honeypot_access_attempt",
			"severity": honeypot.Severity(d),
		})
		return ErrHoneypotWrite
	case d.IsSuspicious:
		s.log.Log(ctx, seclog.EventSuspiciousPattern, map[string]any{
			"key":     key,
			"pattern": d.MatchedPattern,
			"op":      "set",
		})
		if s.config.BlockSuspiciousWrites {
			return ErrSuspiciousWrite
		}
	}
	return nil
}

// encodeValue serializes value per the operation mode. JSON mode wraps it
// in an envelope and verifies the envelope round-trips before storage.
func (s *Store) encodeValue(ctx context.Context, key string, value any, opts Options) ([]byte, error) {
	if opts.Raw {
		var raw []byte
		switch v := value.(type) {
		case string:
			raw = []byte(v)
		case []byte:
			raw = v
		default:
			return nil, fmt.Errorf("%w: raw mode requires string or []byte", ErrSerialization)
		}
		if len(raw) == 0 {
			return nil, ErrNilValue
		}
		return raw, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		s.log.Log(ctx, seclog.EventBlockedWrite, map[string]any{
			"key": key, "reason": "serialization failed", "error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if string(data) == "null" {
		return nil, ErrNilValue
	}

	encoded, err := encodeEntry(data, opts.TTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	// Parse-back sanity check: what was encoded must decode cleanly.
	if _, err := decodeEntry(encoded); err != nil {
		s.log.Log(ctx, seclog.EventBlockedWrite, map[string]any{
			"key": key, "reason": "envelope round-trip failed", "error": err.Error(),
		})
		return nil, fmt.Errorf("%w: round-trip check: %v", ErrSerialization, err)
	}
	return encoded, nil
}

// Delete removes key from the backend. Best-effort: backend failures are
// logged, never surfaced.
func (s *Store) Delete(ctx context.Context, key string, opts Options) {
	start := time.Now()
	defer s.config.Metrics.recordDuration(ctx, "delete", start)
	opts = s.resolveOptions(opts)

	fullKey, err := s.guard.BuildKey(ctx, key, opts.Prefix)
	if err != nil {
		return
	}
	if err := s.backend.Delete(ctx, fullKey); err != nil {
		s.log.Log(ctx, seclog.EventAuditCompleted, map[string]any{
			"op": "delete", "key": fullKey, "error": err.Error(),
		})
	}
}

// Exists probes the backend for key. Lightweight: no honeypot or
// rate-limit checks; errors read as absent.
func (s *Store) Exists(ctx context.Context, key string, opts Options) bool {
	opts = s.resolveOptions(opts)
	fullKey, err := s.guard.BuildKey(ctx, key, opts.Prefix)
	if err != nil {
		return false
	}
	raw, err := s.backend.Get(ctx, fullKey)
	return err == nil && raw != nil
}

// Fallback produces a fresh value on cache miss, typically by querying
// the source of truth.
type Fallback func(ctx context.Context) (any, error)

// GetOrSet reads through the cache: on miss it invokes fallback, stores
// the result best-effort, and returns the serialized value. Concurrent
// misses for the same key each invoke the fallback unless the store was
// configured with CoalesceFallbacks.
func (s *Store) GetOrSet(ctx context.Context, key string, fallback Fallback, opts Options) ([]byte, error) {
	if cached, err := s.Get(ctx, key, opts); err != nil {
		return nil, err
	} else if cached != nil {
		return cached, nil
	}

	if !s.config.CoalesceFallbacks {
		return s.fillFromFallback(ctx, key, fallback, opts)
	}

	resolved := s.resolveOptions(opts)
	v, err, _ := s.group.Do(resolved.Prefix+keyguard.Delimiter+key, func() (any, error) {
		return s.fillFromFallback(ctx, key, fallback, opts)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *Store) fillFromFallback(ctx context.Context, key string, fallback Fallback, opts Options) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "cacheguard.fallback")
	value, err := fallback(ctx)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("store: fallback failed: %w", err)
	}

	// Population is best-effort; a failed write only costs the next read a
	// trip to the source of truth.
	if err := s.Set(ctx, key, value, opts); err != nil {
		s.log.Log(ctx, seclog.EventAuditCompleted, map[string]any{
			"op": "getOrSet", "key": key, "error": err.Error(), "outcome": "population_skipped",
		})
	}

	if opts.Raw {
		switch v := value.(type) {
		case string:
			return []byte(v), nil
		case []byte:
			return v, nil
		default:
			return nil, fmt.Errorf("%w: raw mode requires string or []byte", ErrSerialization)
		}
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return data, nil
}

// ClearResult reports the outcome of a bulk delete.
type ClearResult struct {
	Deleted int
	Errors  int
}

// ClearPrefix deletes every key under prefix, paginating through the
// backend listing. Individual delete failures increment the error count
// rather than aborting the sweep.
func (s *Store) ClearPrefix(ctx context.Context, prefix string) (ClearResult, error) {
	return s.clear(ctx, prefix)
}

// ClearAll wipes the entire namespace. Intended for operator recovery and
// TTL reconfiguration, not routine invalidation.
func (s *Store) ClearAll(ctx context.Context) (ClearResult, error) {
	return s.clear(ctx, "")
}

func (s *Store) clear(ctx context.Context, prefix string) (ClearResult, error) {
	var result ClearResult
	cursor := ""

	for {
		page, err := s.backend.List(ctx, ListOptions{Prefix: prefix, Cursor: cursor})
		if err != nil {
			return result, fmt.Errorf("store: list failed: %w", err)
		}

		for _, key := range page.Keys {
			if err := s.backend.Delete(ctx, key); err != nil {
				result.Errors++
				continue
			}
			result.Deleted++
			if result.Deleted%clearLogEvery == 0 {
				s.log.Log(ctx, seclog.EventAuditCompleted, map[string]any{
					"op": "clear", "prefix": prefix, "deleted": result.Deleted,
				})
			}
		}

		if page.Complete {
			break
		}
		cursor = page.Cursor
	}

	s.log.Log(ctx, seclog.EventAuditCompleted, map[string]any{
		"op": "clear", "prefix": prefix, "deleted": result.Deleted, "errors": result.Errors,
	})
	return result, nil
}
