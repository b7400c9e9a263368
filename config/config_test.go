package config

import (
	"strings"
	"testing"
	"time"
)

// TestFromEnv_Defaults verifies every default applies with a clean
// environment.
func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.ServiceName != DefaultServiceName {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, DefaultServiceName)
	}
	if cfg.DefaultTTL != DefaultDefaultTTL {
		t.Errorf("DefaultTTL = %v, want %v", cfg.DefaultTTL, DefaultDefaultTTL)
	}
	if cfg.BlockSuspiciousWrites {
		t.Error("BlockSuspiciousWrites should default to false")
	}
	if cfg.Tracing.Enabled || cfg.Metrics.Enabled {
		t.Error("telemetry should default to disabled")
	}
	if cfg.Tracing.SamplePct != DefaultTracingSamplePct {
		t.Errorf("SamplePct = %v, want %v", cfg.Tracing.SamplePct, DefaultTracingSamplePct)
	}
}

// TestFromEnv_Overrides verifies environment values take effect.
func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvServiceName, "shortener-cache")
	t.Setenv(EnvDefaultTTL, "90s")
	t.Setenv(EnvBlockSuspiciousWrites, "true")
	t.Setenv(EnvTTLShort, "30s")
	t.Setenv(EnvTracingEnabled, "true")
	t.Setenv(EnvTracingExporter, "stdout")
	t.Setenv(EnvTracingSamplePct, "0.25")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.ServiceName != "shortener-cache" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
	if cfg.DefaultTTL != 90*time.Second {
		t.Errorf("DefaultTTL = %v, want 90s", cfg.DefaultTTL)
	}
	if !cfg.BlockSuspiciousWrites {
		t.Error("BlockSuspiciousWrites should be true")
	}
	if cfg.TTL.Short != 30*time.Second {
		t.Errorf("TTL.Short = %v, want 30s", cfg.TTL.Short)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Exporter != "stdout" {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Tracing.SamplePct != 0.25 {
		t.Errorf("SamplePct = %v, want 0.25", cfg.Tracing.SamplePct)
	}
}

// TestFromEnv_Expansion verifies `${VAR}` references expand, and that
// missing references fail loudly.
func TestFromEnv_Expansion(t *testing.T) {
	t.Setenv("DEPLOY_ENV", "staging")
	t.Setenv(EnvServiceName, "cacheguard-${DEPLOY_ENV}")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.ServiceName != "cacheguard-staging" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "cacheguard-staging")
	}

	t.Setenv(EnvServiceName, "cacheguard-${NOT_A_REAL_VAR_12345}")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for missing variable reference")
	}
}

// TestFromEnv_InvalidValues verifies unparseable values error with the
// variable name in the message.
func TestFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", EnvDefaultTTL, "soon"},
		{"bad bool", EnvBlockSuspiciousWrites, "yep"},
		{"bad float", EnvTracingSamplePct, "a-lot"},
		{"negative ttl", EnvTTLLong, "-1h"},
		{"sample pct out of range", EnvTracingSamplePct, "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			if err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

// TestValidate_EmptyServiceName verifies the service name is required.
func TestValidate_EmptyServiceName(t *testing.T) {
	cfg := Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for empty service name")
	}
	if !strings.Contains(err.Error(), "service name") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestTTLConfig_FillsDefaults verifies unset region TTLs fall back to
// the stock policy while set ones override it.
func TestTTLConfig_FillsDefaults(t *testing.T) {
	cfg := Config{TTL: TTLDurations{Short: 10 * time.Second}}
	ttl := cfg.TTLConfig()
	if ttl.Short != 10*time.Second {
		t.Errorf("Short = %v, want 10s", ttl.Short)
	}
	if ttl.Medium != time.Hour {
		t.Errorf("Medium = %v, want 1h", ttl.Medium)
	}
	if ttl.URLLookup != 24*time.Hour {
		t.Errorf("URLLookup = %v, want 24h", ttl.URLLookup)
	}
}

// TestStoreConfig verifies the conversion carries the cache policy
// flags through.
func TestStoreConfig(t *testing.T) {
	cfg := Config{
		DefaultTTL:            2 * time.Minute,
		BlockSuspiciousWrites: true,
		CoalesceFallbacks:     true,
	}
	sc := cfg.StoreConfig()
	if sc.DefaultTTL != 2*time.Minute || !sc.BlockSuspiciousWrites || !sc.CoalesceFallbacks {
		t.Errorf("StoreConfig() = %+v", sc)
	}
}
