package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "MDAST_API_KEY", "WORKER_COUNT", "MAX_QUEUE_SIZE", "MAX_UPLOAD_BYTES",
		"JOB_TTL", "SESSION_TTL", "CACHE_DIR", "CACHE_TTL", "RATE_LIMIT", "RATE_BURST",
		"LOG_LEVEL", "PARSE_GFM", "PARSE_MATH", "PARSE_WIKILINKS", "PARSE_HTML", "MDAST_CONFIG",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8090" || cfg.WorkerCount != 4 || cfg.MaxQueueSize != 100 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Parse.GFM || cfg.Parse.HTML {
		t.Fatalf("expected GFM-only dialect, got %+v", cfg.Parse)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MDAST_API_KEY", "secret")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("JOB_TTL", "10m")
	t.Setenv("PARSE_MATH", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("RATE_LIMIT", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorkerCount != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != 10*time.Minute {
		t.Errorf("expected 10m job ttl, got %s", cfg.JobTTL)
	}
	if !cfg.Parse.Math {
		t.Error("expected math enabled")
	}
	if cfg.RateLimit != 2.5 {
		t.Errorf("expected rate 2.5, got %f", cfg.RateLimit)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.SlogLevel())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "mdast.yaml")
	data := []byte("port: \"9000\"\nworker_count: 2\nsession_ttl: 5m\nparse:\n  gfm: false\n  wikilinks: true\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MDAST_CONFIG", path)
	t.Setenv("WORKER_COUNT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected port from file, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 3 {
		t.Errorf("expected env to win over file, got %d", cfg.WorkerCount)
	}
	if cfg.SessionTTL != 5*time.Minute {
		t.Errorf("expected 5m session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.Parse.GFM || !cfg.Parse.Wikilinks {
		t.Errorf("unexpected dialect %+v", cfg.Parse)
	}
	if cfg.MaxQueueSize != 100 {
		t.Errorf("expected default queue size kept, got %d", cfg.MaxQueueSize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("MDAST_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"zero workers", func(c *Config) { c.WorkerCount = 0 }},
		{"bad port", func(c *Config) { c.Port = "http" }},
		{"bad level", func(c *Config) { c.LogLevel = "verbose" }},
		{"zero job ttl", func(c *Config) { c.JobTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			cfg.APIKey = "k"
			tt.mod(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
