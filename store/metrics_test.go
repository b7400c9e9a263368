package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonwraymond/cacheguard/seclog"
)

// collectedSum returns the summed int64 counter value for name, or -1
// when the instrument reported no data.
func collectedSum(rm metricdata.ResourceMetrics, name string) int64 {
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				return -1
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return -1
}

// collectedHistogramCount returns the total datapoint count for the named
// float64 histogram, or 0 when absent.
func collectedHistogramCount(rm metricdata.ResourceMetrics, name string) uint64 {
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			hist, ok := m.Data.(metricdata.Histogram[float64])
			if !ok {
				return 0
			}
			var total uint64
			for _, dp := range hist.DataPoints {
				total += dp.Count
			}
			return total
		}
	}
	return 0
}

// TestMetrics_RecordsCacheOutcomes verifies the instrument set counts
// hits, misses, honeypot triggers, and rate-limit rejections, and that
// operation durations land in the histogram.
func TestMetrics_RecordsCacheOutcomes(t *testing.T) {
	ctx := context.Background()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	metrics, err := NewMetrics(provider.Meter("cacheguard-test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	backend := NewMemoryBackend()
	t.Cleanup(backend.Close)
	s, err := New(backend, Config{Metrics: metrics}, seclog.Nop())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(s.Close)

	// One hit.
	if err := s.Set(ctx, "present", "value", Options{Prefix: "m"}); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if data, _ := s.Get(ctx, "present", Options{Prefix: "m"}); data == nil {
		t.Fatal("expected hit")
	}

	// One miss.
	if data, _ := s.Get(ctx, "absent", Options{Prefix: "m"}); data != nil {
		t.Fatal("expected miss")
	}

	// One honeypot trigger.
	if trap, _ := s.Get(ctx, "admin:password", Options{}); trap == nil {
		t.Fatal("expected trap payload")
	}

	// One rate-limit rejection: the write preset allows 100 per key.
	var limited error
	for i := 0; i <= 100; i++ {
		limited = s.Set(ctx, "hammered", fmt.Sprintf("v%d", i), Options{Prefix: "m"})
	}
	if !errors.Is(limited, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on call 101, got %v", limited)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect error: %v", err)
	}

	if got := collectedSum(rm, "cache.hits"); got != 1 {
		t.Errorf("cache.hits = %d, want 1", got)
	}
	if got := collectedSum(rm, "cache.misses"); got != 1 {
		t.Errorf("cache.misses = %d, want 1", got)
	}
	if got := collectedSum(rm, "cache.honeypot.triggers"); got != 1 {
		t.Errorf("cache.honeypot.triggers = %d, want 1", got)
	}
	if got := collectedSum(rm, "cache.ratelimit.rejections"); got != 1 {
		t.Errorf("cache.ratelimit.rejections = %d, want 1", got)
	}
	if got := collectedHistogramCount(rm, "cache.op.duration_ms"); got == 0 {
		t.Error("cache.op.duration_ms recorded no datapoints")
	}
}

// TestMetrics_NilReceiverIsSafe verifies a store without instrumentation
// records nothing and never panics.
func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	m.recordHit(ctx)
	m.recordMiss(ctx)
	m.recordHoneypot(ctx)
	m.recordRateLimited(ctx, "set")
	m.recordDuration(ctx, "get", time.Now())
}

// TestTracer_FallbackSpan verifies a getOrSet miss runs the fallback
// under a span.
func TestTracer_FallbackSpan(t *testing.T) {
	ctx := context.Background()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(ctx) })

	backend := NewMemoryBackend()
	t.Cleanup(backend.Close)
	s, err := New(backend, Config{Tracer: tp.Tracer("cacheguard-test")}, seclog.Nop())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(s.Close)

	fallback := func(ctx context.Context) (any, error) { return "fetched", nil }
	if _, err := s.GetOrSet(ctx, "traced", fallback, Options{Prefix: "m"}); err != nil {
		t.Fatalf("GetOrSet error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if spans[0].Name != "cacheguard.fallback" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "cacheguard.fallback")
	}

	// A hit must not start a fallback span.
	exporter.Reset()
	if _, err := s.GetOrSet(ctx, "traced", fallback, Options{Prefix: "m"}); err != nil {
		t.Fatalf("GetOrSet hit error: %v", err)
	}
	if got := len(exporter.GetSpans()); got != 0 {
		t.Errorf("spans after hit = %d, want 0", got)
	}
}
