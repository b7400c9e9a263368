package store

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache operation outcomes. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	hits        metric.Int64Counter
	misses      metric.Int64Counter
	honeypots   metric.Int64Counter
	rateLimited metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewMetrics creates the cache instrument set on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	hits, err := meter.Int64Counter(
		"cache.hits",
		metric.WithDescription("Cache reads served from the backend"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"cache.misses",
		metric.WithDescription("Cache reads that fell through to the source of truth"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		return nil, err
	}

	honeypots, err := meter.Int64Counter(
		"cache.honeypot.triggers",
		metric.WithDescription("Accesses to honeypot keys"),
		metric.WithUnit("{access}"),
	)
	if err != nil {
		return nil, err
	}

	rateLimited, err := meter.Int64Counter(
		"cache.ratelimit.rejections",
		metric.WithDescription("Operations that exceeded a rate limit"),
		metric.WithUnit("{op}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"cache.op.duration_ms",
		metric.WithDescription("Cache operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		hits:        hits,
		misses:      misses,
		honeypots:   honeypots,
		rateLimited: rateLimited,
		duration:    duration,
	}, nil
}

func (m *Metrics) recordHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.hits.Add(ctx, 1)
}

func (m *Metrics) recordMiss(ctx context.Context) {
	if m == nil {
		return
	}
	m.misses.Add(ctx, 1)
}

func (m *Metrics) recordHoneypot(ctx context.Context) {
	if m == nil {
		return
	}
	m.honeypots.Add(ctx, 1)
}

func (m *Metrics) recordRateLimited(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *Metrics) recordDuration(ctx context.Context, op string, start time.Time) {
	if m == nil {
		return
	}
	ms := float64(time.Since(start).Microseconds()) / 1000.0
	m.duration.Record(ctx, ms, metric.WithAttributes(attribute.String("op", op)))
}
