// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/alabarga/last-fm-recommender-system/internal/logging"
	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
	"github.com/alabarga/last-fm-recommender-system/internal/validation"
)

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: Override any setting
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	engine, err := recommend.NewEngine(cfg.ToRecommendConfig(), logger)
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Recommend RecommendConfig `koanf:"recommend"`
	Storage   StorageConfig   `koanf:"storage"`
	Logging   LoggingConfig   `koanf:"logging"`
	Events    EventsConfig    `koanf:"events"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// CORSOrigins lists allowed origins. "*" allows any origin.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests and RateLimitWindow bound API requests per client IP.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`

	// TrainInterval is the minimum spacing between accepted POST /train
	// calls; TrainBurst is the number accepted back to back.
	TrainInterval time.Duration `koanf:"train_interval" validate:"gt=0"`
	TrainBurst    int           `koanf:"train_burst" validate:"min=1"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig contains DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB file. Empty opens an in-memory database.
	Path string `koanf:"path"`

	// MaxMemory is passed to DuckDB's memory_limit setting.
	MaxMemory string `koanf:"max_memory"`

	// Threads is passed to DuckDB's threads setting. Zero keeps DuckDB's default.
	Threads int `koanf:"threads" validate:"min=0"`

	// BreakerFailures is the number of consecutive load failures that open
	// the circuit breaker; BreakerTimeout is how long it stays open.
	BreakerFailures int           `koanf:"breaker_failures" validate:"min=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// RecommendConfig contains the recommendation engine settings.
type RecommendConfig struct {
	// Mode is "item" or "user".
	Mode        string `koanf:"mode" validate:"oneof=item user"`
	ExcludeSeen bool   `koanf:"exclude_seen"`

	NumWorkers int `koanf:"num_workers" validate:"min=0"`
	BlockSize  int `koanf:"block_size" validate:"min=1"`

	MinInteractions int           `koanf:"min_interactions" validate:"min=0"`
	TrainTimeout    time.Duration `koanf:"train_timeout" validate:"gt=0"`
	SnapshotN       int           `koanf:"snapshot_n" validate:"min=0"`

	DefaultN int `koanf:"default_n" validate:"min=1"`
	MaxN     int `koanf:"max_n" validate:"gtefield=DefaultN"`

	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl" validate:"gt=0"`

	// TrainInterval is the retraining period. Zero disables periodic training.
	TrainInterval  time.Duration `koanf:"train_interval" validate:"min=0"`
	TrainOnStartup bool          `koanf:"train_on_startup"`
}

// StorageConfig contains model and snapshot persistence settings.
type StorageConfig struct {
	// ModelDir holds versioned model files. Empty disables model persistence.
	ModelDir string `koanf:"model_dir"`

	// KeepVersions is how many model files are retained.
	KeepVersions int `koanf:"keep_versions" validate:"min=1"`

	// SnapshotDir holds the Badger snapshot store. Empty disables snapshots.
	SnapshotDir string `koanf:"snapshot_dir"`

	// SnapshotInMemory runs the snapshot store in memory when SnapshotDir is empty.
	SnapshotInMemory bool `koanf:"snapshot_in_memory"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// EventsConfig contains in-process event bus settings.
type EventsConfig struct {
	Enabled      bool  `koanf:"enabled"`
	OutputBuffer int64 `koanf:"output_buffer" validate:"min=0"`
}

// Validate checks every section.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}
	if _, err := recommend.ParseMode(c.Recommend.Mode); err != nil {
		return fmt.Errorf("recommend.mode: %w", err)
	}
	return c.ToRecommendConfig().Validate()
}

// ToRecommendConfig converts the recommend section to an engine config.
func (c *Config) ToRecommendConfig() *recommend.Config {
	r := c.Recommend
	return &recommend.Config{
		Mode:        recommend.Mode(r.Mode),
		ExcludeSeen: r.ExcludeSeen,
		Similarity: recommend.SimilarityConfig{
			NumWorkers: r.NumWorkers,
			BlockSize:  r.BlockSize,
		},
		Training: recommend.TrainingConfig{
			MinInteractions: r.MinInteractions,
			Timeout:         r.TrainTimeout,
			SnapshotN:       r.SnapshotN,
		},
		Limits: recommend.LimitsConfig{
			DefaultN: r.DefaultN,
			MaxN:     r.MaxN,
		},
		Cache: recommend.CacheConfig{
			Enabled: r.CacheEnabled,
			TTL:     r.CacheTTL,
		},
	}
}

// ToLoggingConfig converts the logging section to a logger config.
func (c *Config) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Caller: c.Logging.Caller,
		Output: os.Stderr,
	}
}

// Load loads configuration from defaults, an optional file and the
// environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
