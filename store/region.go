package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonwraymond/cacheguard/keyguard"
)

// ErrUnknownRegion is returned when a region name is not registered.
var ErrUnknownRegion = errors.New("store: unknown cache region")

// Region binds a name to a key prefix and default TTL. Regions are
// immutable; reconfiguring TTLs replaces the whole region set.
type Region struct {
	Name      string
	KeyPrefix string
	TTL       time.Duration
}

// Region names registered by default.
const (
	RegionShort      = "short"
	RegionMedium     = "medium"
	RegionLong       = "long"
	RegionURLLookup  = "url-lookup"
	RegionAdminStats = "admin-stats"
)

// TTLConfig is the per-region TTL policy.
type TTLConfig struct {
	Short      time.Duration
	Medium     time.Duration
	Long       time.Duration
	URLLookup  time.Duration
	AdminStats time.Duration
}

// DefaultTTLConfig returns the stock TTL policy.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		Short:      5 * time.Minute,
		Medium:     time.Hour,
		Long:       24 * time.Hour,
		URLLookup:  24 * time.Hour,
		AdminStats: 30 * time.Minute,
	}
}

func regionsFrom(cfg TTLConfig) map[string]Region {
	return map[string]Region{
		RegionShort:      {Name: RegionShort, KeyPrefix: "short", TTL: cfg.Short},
		RegionMedium:     {Name: RegionMedium, KeyPrefix: "med", TTL: cfg.Medium},
		RegionLong:       {Name: RegionLong, KeyPrefix: "long", TTL: cfg.Long},
		RegionURLLookup:  {Name: RegionURLLookup, KeyPrefix: "url", TTL: cfg.URLLookup},
		RegionAdminStats: {Name: RegionAdminStats, KeyPrefix: "stats", TTL: cfg.AdminStats},
	}
}

// Registry holds the named cache regions built atop one Store.
type Registry struct {
	store *Store

	mu      sync.RWMutex
	ttl     TTLConfig
	regions map[string]Region
}

// NewRegistry creates a Registry with the default region set.
func NewRegistry(store *Store) *Registry {
	cfg := DefaultTTLConfig()
	return &Registry{
		store:   store,
		ttl:     cfg,
		regions: regionsFrom(cfg),
	}
}

// Region returns a handle bound to the named region's prefix and TTL.
func (r *Registry) Region(name string) (*RegionHandle, error) {
	r.mu.RLock()
	region, ok := r.regions[name]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownRegion
	}
	return &RegionHandle{region: region, store: r.store}, nil
}

// TTLConfig returns the active TTL policy.
func (r *Registry) TTLConfig() TTLConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ttl
}

// SetTTLConfig replaces the region set with one built from cfg, then wipes
// the whole namespace. Previously written entries embed the old TTL in
// their envelope, so they cannot be kept.
func (r *Registry) SetTTLConfig(ctx context.Context, cfg TTLConfig) (ClearResult, error) {
	r.mu.Lock()
	r.ttl = cfg
	r.regions = regionsFrom(cfg)
	r.mu.Unlock()

	return r.store.ClearAll(ctx)
}

// ClearAll wipes the whole namespace across every region.
func (r *Registry) ClearAll(ctx context.Context) (ClearResult, error) {
	return r.store.ClearAll(ctx)
}

// RegionHandle exposes Store operations bound to one region.
type RegionHandle struct {
	region Region
	store  *Store
}

// Name returns the region name.
func (h *RegionHandle) Name() string { return h.region.Name }

// TTL returns the region's default TTL.
func (h *RegionHandle) TTL() time.Duration { return h.region.TTL }

func (h *RegionHandle) opts() Options {
	return Options{Prefix: h.region.KeyPrefix, TTL: h.region.TTL}
}

// Get reads key from the region.
func (h *RegionHandle) Get(ctx context.Context, key string) ([]byte, error) {
	return h.store.Get(ctx, key, h.opts())
}

// Set writes key to the region with the region TTL.
func (h *RegionHandle) Set(ctx context.Context, key string, value any) error {
	return h.store.Set(ctx, key, value, h.opts())
}

// Delete removes key from the region.
func (h *RegionHandle) Delete(ctx context.Context, key string) {
	h.store.Delete(ctx, key, h.opts())
}

// Exists probes the region for key.
func (h *RegionHandle) Exists(ctx context.Context, key string) bool {
	return h.store.Exists(ctx, key, h.opts())
}

// GetOrSet reads through the region, populating from fallback on miss.
func (h *RegionHandle) GetOrSet(ctx context.Context, key string, fallback Fallback) ([]byte, error) {
	return h.store.GetOrSet(ctx, key, fallback, h.opts())
}

// Clear deletes every key in the region.
func (h *RegionHandle) Clear(ctx context.Context) (ClearResult, error) {
	return h.store.ClearPrefix(ctx, h.region.KeyPrefix+keyguard.Delimiter)
}
