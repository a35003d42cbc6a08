package infra

import (
	"path/filepath"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("ALLOWED_CONTENT_TYPES", "")
	t.Setenv("GENERATION_RATE_LIMIT", "")
	t.Setenv("GENERATION_RATE_WINDOW", "")
	t.Setenv("IMAGE_GENERATION_STRATEGY", "")
	t.Setenv("STORAGE_ROOT", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MaxUploadBytes != 10*1024*1024 {
		t.Fatalf("MaxUploadBytes = %d, want 10 MiB", cfg.MaxUploadBytes)
	}
	if len(cfg.AllowedContentTypes) != 4 {
		t.Fatalf("AllowedContentTypes = %#v", cfg.AllowedContentTypes)
	}
	if cfg.GenerationRateLimit != 50 {
		t.Fatalf("GenerationRateLimit = %d, want 50", cfg.GenerationRateLimit)
	}
	if cfg.GenerationRateWindow != 24*time.Hour {
		t.Fatalf("GenerationRateWindow = %s, want 24h", cfg.GenerationRateWindow)
	}
	if cfg.GenerationStrategy != StrategyTest {
		t.Fatalf("GenerationStrategy = %q, want %q outside production", cfg.GenerationStrategy, StrategyTest)
	}
	if !filepath.IsAbs(cfg.StorageRoot) {
		t.Fatalf("StorageRoot should be absolute, got %q", cfg.StorageRoot)
	}
	if cfg.DatabaseDriver != DriverPostgres {
		t.Fatalf("DatabaseDriver = %q, want %q", cfg.DatabaseDriver, DriverPostgres)
	}
}

func TestLoadConfigProductionDefaultsToRemoteStrategy(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("IMAGE_GENERATION_STRATEGY", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.GenerationStrategy != StrategyRemote {
		t.Fatalf("GenerationStrategy = %q, want %q", cfg.GenerationStrategy, StrategyRemote)
	}
}

func TestLoadConfigParsesOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_DRIVER", "SQLITE3")
	t.Setenv("GENERATION_RATE_WINDOW", "90m")
	t.Setenv("GENERATION_RATE_LIMIT", "5")
	t.Setenv("ALLOWED_CONTENT_TYPES", " image/PNG , image/webp,")
	t.Setenv("IMAGE_GENERATION_STRATEGY", "remote")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DatabaseDriver != DriverSQLite {
		t.Fatalf("DatabaseDriver = %q", cfg.DatabaseDriver)
	}
	if cfg.GenerationRateWindow != 90*time.Minute || cfg.GenerationRateLimit != 5 {
		t.Fatalf("rate limit = %d per %s", cfg.GenerationRateLimit, cfg.GenerationRateWindow)
	}
	expected := []string{"image/png", "image/webp"}
	if len(cfg.AllowedContentTypes) != len(expected) {
		t.Fatalf("AllowedContentTypes = %#v, want %#v", cfg.AllowedContentTypes, expected)
	}
	for i, ct := range expected {
		if cfg.AllowedContentTypes[i] != ct {
			t.Fatalf("AllowedContentTypes[%d] = %q, want %q", i, cfg.AllowedContentTypes[i], ct)
		}
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "missing database url", key: "DATABASE_URL", val: ""},
		{name: "missing jwt secret", key: "JWT_SECRET", val: ""},
		{name: "unknown driver", key: "DATABASE_DRIVER", val: "mysql"},
		{name: "unknown strategy", key: "IMAGE_GENERATION_STRATEGY", val: "dalle"},
		{name: "zero rate limit", key: "GENERATION_RATE_LIMIT", val: "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.val)
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.val)
			}
		})
	}
}
