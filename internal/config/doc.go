// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

/*
Package config loads application configuration with Koanf v2.

Sources are layered with later sources overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. A YAML file named by CONFIG_PATH, or the first of DefaultConfigPaths
 3. Environment variables listed in envMappings

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT: listen address (default: 0.0.0.0:8080)
  - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_IDLE_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT
  - CORS_ORIGINS: comma-separated allowed origins (default: *)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW: per-IP API limit (default: 300/1m)
  - TRAIN_RATE_INTERVAL, TRAIN_RATE_BURST: POST /api/v1/train throttle

Database:
  - DUCKDB_PATH: database file, empty for in-memory (default: /data/lfmrec.duckdb)
  - DUCKDB_MAX_MEMORY, DUCKDB_THREADS
  - DUCKDB_BREAKER_FAILURES, DUCKDB_BREAKER_TIMEOUT: interaction load breaker

Recommendation engine:
  - RECOMMEND_MODE: item or user (default: item)
  - RECOMMEND_EXCLUDE_SEEN (default: true)
  - RECOMMEND_NUM_WORKERS, RECOMMEND_BLOCK_SIZE
  - RECOMMEND_MIN_INTERACTIONS, RECOMMEND_TRAIN_TIMEOUT, RECOMMEND_SNAPSHOT_N
  - RECOMMEND_DEFAULT_N, RECOMMEND_MAX_N
  - RECOMMEND_CACHE_ENABLED, RECOMMEND_CACHE_TTL
  - RECOMMEND_TRAIN_INTERVAL, RECOMMEND_TRAIN_ON_STARTUP

Storage:
  - MODEL_DIR, MODEL_KEEP_VERSIONS
  - SNAPSHOT_DIR, SNAPSHOT_IN_MEMORY

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Events:
  - EVENTS_ENABLED, EVENTS_OUTPUT_BUFFER

# Example YAML

	server:
	  port: 8080
	  cors_origins: ["https://example.com"]
	recommend:
	  mode: user
	  exclude_seen: false
	  train_interval: 6h
	storage:
	  model_dir: /var/lib/lfmrec/models
*/
package config
