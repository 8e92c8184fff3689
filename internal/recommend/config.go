// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package recommend

import (
	"fmt"
	"runtime"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Mode selects item-based or user-based prediction.
	// Default: item
	Mode Mode `json:"mode"`

	// ExcludeSeen drops items the user already interacted with from
	// recommendation lists.
	// Default: true
	ExcludeSeen bool `json:"exclude_seen"`

	// Similarity contains parameters for the pairwise similarity stage.
	Similarity SimilarityConfig `json:"similarity"`

	// Training contains training schedule parameters.
	Training TrainingConfig `json:"training"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains response caching parameters.
	Cache CacheConfig `json:"cache"`
}

// SimilarityConfig contains parameters for the blocked similarity computation.
type SimilarityConfig struct {
	// NumWorkers is the number of goroutines computing row blocks.
	// Zero means runtime.NumCPU().
	// Default: 0
	NumWorkers int `json:"num_workers"`

	// BlockSize is the number of output rows per block. Cancellation is
	// checked between blocks.
	// Default: 64
	BlockSize int `json:"block_size"`
}

// Workers returns the effective worker count.
func (c SimilarityConfig) Workers() int {
	if c.NumWorkers <= 0 {
		return runtime.NumCPU()
	}
	return c.NumWorkers
}

// TrainingConfig contains training parameters.
type TrainingConfig struct {
	// MinInteractions is the minimum number of records required to train.
	// Default: 1
	MinInteractions int `json:"min_interactions"`

	// Timeout is the maximum duration of one training run.
	// Default: 30m
	Timeout time.Duration `json:"timeout"`

	// SnapshotN is the list length written to the snapshot store after
	// training. Zero disables snapshots.
	// Default: 50
	SnapshotN int `json:"snapshot_n"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultN is used when a request does not specify N.
	// Default: 10
	DefaultN int `json:"default_n"`

	// MaxN caps the number of items per request.
	// Default: 500
	MaxN int `json:"max_n"`
}

// CacheConfig contains caching parameters.
type CacheConfig struct {
	// Enabled turns the response cache on.
	// Default: true
	Enabled bool `json:"enabled"`

	// TTL is how long a cached response is valid.
	// Default: 5m
	TTL time.Duration `json:"ttl"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode:        ModeItemBased,
		ExcludeSeen: true,
		Similarity: SimilarityConfig{
			NumWorkers: 0,
			BlockSize:  64,
		},
		Training: TrainingConfig{
			MinInteractions: 1,
			Timeout:         30 * time.Minute,
			SnapshotN:       50,
		},
		Limits: LimitsConfig{
			DefaultN: 10,
			MaxN:     500,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return fmt.Errorf("mode: %w", err)
	}

	if c.Similarity.NumWorkers < 0 {
		return fmt.Errorf("similarity.num_workers must be non-negative, got %d", c.Similarity.NumWorkers)
	}
	if c.Similarity.BlockSize < 1 {
		return fmt.Errorf("similarity.block_size must be positive, got %d", c.Similarity.BlockSize)
	}

	if c.Training.MinInteractions < 0 {
		return fmt.Errorf("training.min_interactions must be non-negative, got %d", c.Training.MinInteractions)
	}
	if c.Training.Timeout <= 0 {
		return fmt.Errorf("training.timeout must be positive, got %v", c.Training.Timeout)
	}
	if c.Training.SnapshotN < 0 {
		return fmt.Errorf("training.snapshot_n must be non-negative, got %d", c.Training.SnapshotN)
	}

	if c.Limits.DefaultN < 1 {
		return fmt.Errorf("limits.default_n must be positive, got %d", c.Limits.DefaultN)
	}
	if c.Limits.MaxN < c.Limits.DefaultN {
		return fmt.Errorf("limits.max_n (%d) must be >= limits.default_n (%d)", c.Limits.MaxN, c.Limits.DefaultN)
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when cache is enabled, got %v", c.Cache.TTL)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs hold value types only.
	clone := *c
	return &clone
}
