// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/lfmrec/config.yaml",
	"/etc/lfmrec/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values set.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
			TrainInterval:     time.Minute,
			TrainBurst:        1,
		},
		Database: DatabaseConfig{
			Path:            "/data/lfmrec.duckdb",
			MaxMemory:       "1GB",
			Threads:         0,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Recommend: RecommendConfig{
			Mode:            "item",
			ExcludeSeen:     true,
			NumWorkers:      0, // 0 = use runtime.NumCPU()
			BlockSize:       64,
			MinInteractions: 1,
			TrainTimeout:    30 * time.Minute,
			SnapshotN:       50,
			DefaultN:        10,
			MaxN:            500,
			CacheEnabled:    true,
			CacheTTL:        5 * time.Minute,
			TrainInterval:   24 * time.Hour,
			TrainOnStartup:  true,
		},
		Storage: StorageConfig{
			ModelDir:     "/data/models",
			KeepVersions: 3,
			SnapshotDir:  "/data/snapshots",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Events: EventsConfig{
			Enabled:      true,
			OutputBuffer: 64,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables
	// HTTP_PORT -> server.port, RECOMMEND_MODE -> recommend.mode
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars arrive as strings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_requests",
	"rate_limit_window":     "server.rate_limit_window",
	"train_rate_interval":   "server.train_interval",
	"train_rate_burst":      "server.train_burst",

	// Database
	"duckdb_path":             "database.path",
	"duckdb_max_memory":       "database.max_memory",
	"duckdb_threads":          "database.threads",
	"duckdb_breaker_failures": "database.breaker_failures",
	"duckdb_breaker_timeout":  "database.breaker_timeout",

	// Recommendation engine
	"recommend_mode":             "recommend.mode",
	"recommend_exclude_seen":     "recommend.exclude_seen",
	"recommend_num_workers":      "recommend.num_workers",
	"recommend_block_size":       "recommend.block_size",
	"recommend_min_interactions": "recommend.min_interactions",
	"recommend_train_timeout":    "recommend.train_timeout",
	"recommend_snapshot_n":       "recommend.snapshot_n",
	"recommend_default_n":        "recommend.default_n",
	"recommend_max_n":            "recommend.max_n",
	"recommend_cache_enabled":    "recommend.cache_enabled",
	"recommend_cache_ttl":        "recommend.cache_ttl",
	"recommend_train_interval":   "recommend.train_interval",
	"recommend_train_on_startup": "recommend.train_on_startup",

	// Storage
	"model_dir":           "storage.model_dir",
	"model_keep_versions": "storage.keep_versions",
	"snapshot_dir":        "storage.snapshot_dir",
	"snapshot_in_memory":  "storage.snapshot_in_memory",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Events
	"events_enabled":       "events.enabled",
	"events_output_buffer": "events.output_buffer",
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
