// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
)

// TestDefaultConfig verifies that defaultConfig() returns valid defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Recommend.Mode != "item" {
		t.Errorf("Recommend.Mode = %q, want item", cfg.Recommend.Mode)
	}
	if !cfg.Recommend.ExcludeSeen {
		t.Error("Recommend.ExcludeSeen should be true by default")
	}
	if cfg.Recommend.CacheTTL != 5*time.Minute {
		t.Errorf("Recommend.CacheTTL = %v, want 5m", cfg.Recommend.CacheTTL)
	}
	if cfg.Storage.KeepVersions != 3 {
		t.Errorf("Storage.KeepVersions = %d, want 3", cfg.Storage.KeepVersions)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %q, want 0.0.0.0:8080", cfg.Server.Addr())
	}
	if cfg.Recommend.TrainInterval != 24*time.Hour {
		t.Errorf("Recommend.TrainInterval = %v, want 24h", cfg.Recommend.TrainInterval)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("RECOMMEND_MODE", "user")
	t.Setenv("RECOMMEND_EXCLUDE_SEEN", "false")
	t.Setenv("RECOMMEND_CACHE_TTL", "90s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DUCKDB_PATH", "")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Recommend.Mode != "user" {
		t.Errorf("Recommend.Mode = %q, want user", cfg.Recommend.Mode)
	}
	if cfg.Recommend.ExcludeSeen {
		t.Error("Recommend.ExcludeSeen should be false")
	}
	if cfg.Recommend.CacheTTL != 90*time.Second {
		t.Errorf("Recommend.CacheTTL = %v, want 90s", cfg.Recommend.CacheTTL)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSOrigins) != len(want) {
		t.Fatalf("Server.CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Server.CORSOrigins[i] != want[i] {
			t.Errorf("Server.CORSOrigins[%d] = %q, want %q", i, cfg.Server.CORSOrigins[i], want[i])
		}
	}
	if cfg.Database.Path != "" {
		t.Errorf("Database.Path = %q, want empty", cfg.Database.Path)
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7070
recommend:
  mode: user
  block_size: 16
  train_interval: 6h
storage:
  model_dir: /tmp/models
logging:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	// Environment wins over the file.
	t.Setenv("RECOMMEND_BLOCK_SIZE", "32")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Recommend.BlockSize != 32 {
		t.Errorf("Recommend.BlockSize = %d, want 32", cfg.Recommend.BlockSize)
	}
	if cfg.Recommend.TrainInterval != 6*time.Hour {
		t.Errorf("Recommend.TrainInterval = %v, want 6h", cfg.Recommend.TrainInterval)
	}
	if cfg.Storage.ModelDir != "/tmp/models" {
		t.Errorf("Storage.ModelDir = %q, want /tmp/models", cfg.Storage.ModelDir)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q, want console", cfg.Logging.Format)
	}
	// Untouched sections keep their defaults.
	if cfg.Recommend.DefaultN != 10 {
		t.Errorf("Recommend.DefaultN = %d, want 10", cfg.Recommend.DefaultN)
	}
}

func TestLoadWithKoanf_InvalidConfig(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("RECOMMEND_MODE", "hybrid")

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("LoadWithKoanf() should fail for an unknown mode")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"empty host", func(c *Config) { c.Server.Host = "" }, true},
		{"bad mode", func(c *Config) { c.Recommend.Mode = "hybrid" }, true},
		{"block size zero", func(c *Config) { c.Recommend.BlockSize = 0 }, true},
		{"max below default", func(c *Config) { c.Recommend.MaxN = 5 }, true},
		{"negative workers", func(c *Config) { c.Recommend.NumWorkers = -1 }, true},
		{"zero train interval allowed", func(c *Config) { c.Recommend.TrainInterval = 0 }, false},
		{"keep versions zero", func(c *Config) { c.Storage.KeepVersions = 0 }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"train burst zero", func(c *Config) { c.Server.TrainBurst = 0 }, true},
		{"breaker failures zero", func(c *Config) { c.Database.BreakerFailures = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ToRecommendConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Recommend.Mode = "user"
	cfg.Recommend.ExcludeSeen = false
	cfg.Recommend.NumWorkers = 3
	cfg.Recommend.SnapshotN = 7

	rc := cfg.ToRecommendConfig()
	if rc.Mode != recommend.ModeUserBased {
		t.Errorf("Mode = %q, want %q", rc.Mode, recommend.ModeUserBased)
	}
	if rc.ExcludeSeen {
		t.Error("ExcludeSeen should be false")
	}
	if rc.Similarity.Workers() != 3 {
		t.Errorf("Workers() = %d, want 3", rc.Similarity.Workers())
	}
	if rc.Training.SnapshotN != 7 {
		t.Errorf("SnapshotN = %d, want 7", rc.Training.SnapshotN)
	}
	if err := rc.Validate(); err != nil {
		t.Errorf("converted config should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"DUCKDB_PATH", "database.path"},
		{"RECOMMEND_MODE", "recommend.mode"},
		{"log_level", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.key); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
