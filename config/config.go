package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jonwraymond/cacheguard/store"
	"github.com/jonwraymond/cacheguard/telemetry"
)

// Environment variable names recognized by FromEnv.
const (
	EnvServiceName           = "CACHEGUARD_SERVICE_NAME"
	EnvDefaultTTL            = "CACHEGUARD_DEFAULT_TTL"
	EnvBlockSuspiciousWrites = "CACHEGUARD_BLOCK_SUSPICIOUS_WRITES"
	EnvCoalesceFallbacks     = "CACHEGUARD_COALESCE_FALLBACKS"
	EnvTTLShort              = "CACHEGUARD_TTL_SHORT"
	EnvTTLMedium             = "CACHEGUARD_TTL_MEDIUM"
	EnvTTLLong               = "CACHEGUARD_TTL_LONG"
	EnvTTLURLLookup          = "CACHEGUARD_TTL_URL_LOOKUP"
	EnvTTLAdminStats         = "CACHEGUARD_TTL_ADMIN_STATS"
	EnvTracingEnabled        = "CACHEGUARD_TRACING_ENABLED"
	EnvTracingExporter       = "CACHEGUARD_TRACING_EXPORTER"
	EnvTracingSamplePct      = "CACHEGUARD_TRACING_SAMPLE_PCT"
	EnvMetricsEnabled        = "CACHEGUARD_METRICS_ENABLED"
	EnvMetricsExporter       = "CACHEGUARD_METRICS_EXPORTER"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultServiceName      = "cacheguard"
	DefaultDefaultTTL       = time.Hour
	DefaultTracingExporter  = "none"
	DefaultMetricsExporter  = "none"
	DefaultTracingSamplePct = 1.0
)

// Config is the environment-driven configuration for the caching layer.
// Values set via `${VAR}` references are expanded strictly: a reference
// to a missing variable is an error, not an empty string.
type Config struct {
	ServiceName           string
	DefaultTTL            time.Duration
	BlockSuspiciousWrites bool
	CoalesceFallbacks     bool

	TTL TTLDurations

	Tracing telemetry.TracingConfig
	Metrics telemetry.MetricsConfig
}

// TTLDurations is the per-region TTL policy as loaded from the
// environment. Zero values mean "use the stock default".
type TTLDurations struct {
	Short      time.Duration
	Medium     time.Duration
	Long       time.Duration
	URLLookup  time.Duration
	AdminStats time.Duration
}

// FromEnv builds a Config from CACHEGUARD_* environment variables,
// falling back to defaults for anything unset. It returns an error on
// unparseable values or on `${VAR}` references to missing variables.
func FromEnv() (Config, error) {
	cfg := Config{
		ServiceName: DefaultServiceName,
		DefaultTTL:  DefaultDefaultTTL,
		Tracing: telemetry.TracingConfig{
			Exporter:  DefaultTracingExporter,
			SamplePct: DefaultTracingSamplePct,
		},
		Metrics: telemetry.MetricsConfig{
			Exporter: DefaultMetricsExporter,
		},
	}

	var err error
	if cfg.ServiceName, err = getString(EnvServiceName, cfg.ServiceName); err != nil {
		return Config{}, err
	}
	if cfg.DefaultTTL, err = getDuration(EnvDefaultTTL, cfg.DefaultTTL); err != nil {
		return Config{}, err
	}
	if cfg.BlockSuspiciousWrites, err = getBool(EnvBlockSuspiciousWrites, false); err != nil {
		return Config{}, err
	}
	if cfg.CoalesceFallbacks, err = getBool(EnvCoalesceFallbacks, false); err != nil {
		return Config{}, err
	}

	if cfg.TTL.Short, err = getDuration(EnvTTLShort, 0); err != nil {
		return Config{}, err
	}
	if cfg.TTL.Medium, err = getDuration(EnvTTLMedium, 0); err != nil {
		return Config{}, err
	}
	if cfg.TTL.Long, err = getDuration(EnvTTLLong, 0); err != nil {
		return Config{}, err
	}
	if cfg.TTL.URLLookup, err = getDuration(EnvTTLURLLookup, 0); err != nil {
		return Config{}, err
	}
	if cfg.TTL.AdminStats, err = getDuration(EnvTTLAdminStats, 0); err != nil {
		return Config{}, err
	}

	if cfg.Tracing.Enabled, err = getBool(EnvTracingEnabled, false); err != nil {
		return Config{}, err
	}
	if cfg.Tracing.Exporter, err = getString(EnvTracingExporter, cfg.Tracing.Exporter); err != nil {
		return Config{}, err
	}
	if cfg.Tracing.SamplePct, err = getFloat(EnvTracingSamplePct, cfg.Tracing.SamplePct); err != nil {
		return Config{}, err
	}
	if cfg.Metrics.Enabled, err = getBool(EnvMetricsEnabled, false); err != nil {
		return Config{}, err
	}
	if cfg.Metrics.Exporter, err = getString(EnvMetricsExporter, cfg.Metrics.Exporter); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("config: service name must not be empty")
	}
	if c.DefaultTTL < 0 {
		return fmt.Errorf("config: default TTL must not be negative, got %v", c.DefaultTTL)
	}
	for _, d := range []struct {
		name string
		dur  time.Duration
	}{
		{"short", c.TTL.Short},
		{"medium", c.TTL.Medium},
		{"long", c.TTL.Long},
		{"url-lookup", c.TTL.URLLookup},
		{"admin-stats", c.TTL.AdminStats},
	} {
		if d.dur < 0 {
			return fmt.Errorf("config: %s region TTL must not be negative, got %v", d.name, d.dur)
		}
	}
	if c.Tracing.SamplePct < 0 || c.Tracing.SamplePct > 1 {
		return fmt.Errorf("config: tracing sample percentage must be between 0.0 and 1.0, got %f", c.Tracing.SamplePct)
	}
	return nil
}

// StoreConfig converts to a store.Config. Metrics and tracer wiring
// stays with the caller since both require a live telemetry observer.
func (c Config) StoreConfig() store.Config {
	return store.Config{
		DefaultTTL:            c.DefaultTTL,
		BlockSuspiciousWrites: c.BlockSuspiciousWrites,
		CoalesceFallbacks:     c.CoalesceFallbacks,
	}
}

// TTLConfig converts to a store.TTLConfig, filling unset regions from
// the stock defaults.
func (c Config) TTLConfig() store.TTLConfig {
	ttl := store.DefaultTTLConfig()
	if c.TTL.Short > 0 {
		ttl.Short = c.TTL.Short
	}
	if c.TTL.Medium > 0 {
		ttl.Medium = c.TTL.Medium
	}
	if c.TTL.Long > 0 {
		ttl.Long = c.TTL.Long
	}
	if c.TTL.URLLookup > 0 {
		ttl.URLLookup = c.TTL.URLLookup
	}
	if c.TTL.AdminStats > 0 {
		ttl.AdminStats = c.TTL.AdminStats
	}
	return ttl
}

// TelemetryConfig converts to a telemetry.Config.
func (c Config) TelemetryConfig() telemetry.Config {
	return telemetry.Config{
		ServiceName: c.ServiceName,
		Tracing:     c.Tracing,
		Metrics:     c.Metrics,
	}
}

func getString(key, fallback string) (string, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	expanded, err := ExpandEnvStrict(raw)
	if err != nil {
		return "", fmt.Errorf("config: %s: %w", key, err)
	}
	return expanded, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, err := getString(key, "")
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: invalid duration %q: %w", key, raw, err)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw, err := getString(key, "")
	if err != nil {
		return false, err
	}
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: %s: invalid boolean %q: %w", key, raw, err)
	}
	return b, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw, err := getString(key, "")
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: invalid number %q: %w", key, raw, err)
	}
	return f, nil
}
