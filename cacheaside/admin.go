package cacheaside

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/cacheguard/store"
)

// Sentinel errors for admin construction.
var (
	ErrNilRepository = errors.New("cacheaside: repository must not be nil")
	ErrNilBackend    = errors.New("cacheaside: backend must not be nil")
)

// Backend health statuses reported by the Stats probe.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// healthProbeKey is written and deleted by the Stats health probe. It
// never collides with region keys, which all carry a region prefix.
const healthProbeKey = "healthcheck:probe"

// healthProbeTTL bounds leakage if the probe's delete fails.
const healthProbeTTL = time.Minute

// Report is the get_stats payload: the data rollup, the active TTL
// policy, and the backend health probe result.
type Report struct {
	Stats     AggregateStats  `json:"stats"`
	TTL       store.TTLConfig `json:"ttl"`
	Health    string          `json:"health"`
	HealthErr string          `json:"health_error,omitempty"`
}

// Admin is the operator-facing cache administration surface.
type Admin struct {
	repo    *Repository
	regions *store.Registry
	backend store.Backend
}

// NewAdmin wires the administration surface over an existing repository.
func NewAdmin(repo *Repository, regions *store.Registry, backend store.Backend) (*Admin, error) {
	if repo == nil {
		return nil, ErrNilRepository
	}
	if regions == nil {
		return nil, ErrNilRegistry
	}
	if backend == nil {
		return nil, ErrNilBackend
	}
	return &Admin{repo: repo, regions: regions, backend: backend}, nil
}

// WarmCache populates the top-n URLs and the category listing.
func (a *Admin) WarmCache(ctx context.Context, n int) (int, error) {
	return a.repo.WarmCache(ctx, n)
}

// InvalidateURLs clears the url-lookup region only, leaving list and
// stats caches in place.
func (a *Admin) InvalidateURLs(ctx context.Context) (store.ClearResult, error) {
	h, err := a.regions.Region(store.RegionURLLookup)
	if err != nil {
		return store.ClearResult{}, fmt.Errorf("cacheaside: %w", err)
	}
	return h.Clear(ctx)
}

// ClearAll wipes the entire backend namespace.
func (a *Admin) ClearAll(ctx context.Context) (store.ClearResult, error) {
	return a.repo.ClearAllCaches(ctx)
}

// Stats returns the aggregate rollup, the active TTL policy, and a
// live backend health probe.
func (a *Admin) Stats(ctx context.Context) (Report, error) {
	stats, err := a.repo.Stats(ctx)
	if err != nil {
		return Report{}, err
	}
	report := Report{
		Stats: stats,
		TTL:   a.regions.TTLConfig(),
	}
	report.Health, report.HealthErr = a.probeBackend(ctx)
	return report, nil
}

// probeBackend round-trips a sentinel key through the raw backend.
// Put or Get failure means unhealthy; a corrupt round-trip or a failed
// cleanup delete means degraded.
func (a *Admin) probeBackend(ctx context.Context) (status, detail string) {
	payload := []byte(fmt.Sprintf(`{"probe_at":%d}`, time.Now().UnixMilli()))

	if err := a.backend.Put(ctx, healthProbeKey, payload, healthProbeTTL); err != nil {
		return HealthUnhealthy, fmt.Sprintf("put: %v", err)
	}
	got, err := a.backend.Get(ctx, healthProbeKey)
	if err != nil {
		return HealthUnhealthy, fmt.Sprintf("get: %v", err)
	}
	if !bytes.Equal(got, payload) {
		return HealthDegraded, "probe value mismatch"
	}
	if err := a.backend.Delete(ctx, healthProbeKey); err != nil {
		return HealthDegraded, fmt.Sprintf("delete: %v", err)
	}
	return HealthHealthy, ""
}

// TTLConfig returns the active per-region TTL policy.
func (a *Admin) TTLConfig() store.TTLConfig {
	return a.regions.TTLConfig()
}

// SetTTLConfig replaces the TTL policy and flushes the whole namespace.
// Previously written entries embed the old TTL in their envelope, so
// the flush always runs before success is reported.
func (a *Admin) SetTTLConfig(ctx context.Context, cfg store.TTLConfig) (store.ClearResult, error) {
	return a.regions.SetTTLConfig(ctx, cfg)
}
