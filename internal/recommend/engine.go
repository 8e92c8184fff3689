// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alabarga/last-fm-recommender-system/internal/cache"
	"github.com/alabarga/last-fm-recommender-system/internal/metrics"
)

// Engine owns the training lifecycle and serves requests from the most
// recently trained Model.
type Engine struct {
	config *Config
	logger zerolog.Logger

	dataProvider DataProvider
	modelStore   ModelStore
	snapshots    SnapshotStore
	listeners    []TrainingListener

	// trainMu serializes training runs; modelMu guards model swaps.
	trainMu sync.Mutex
	modelMu sync.RWMutex
	model   *Model
	version int

	statusMu sync.RWMutex
	status   TrainingStatus

	cache *cache.Cache

	requestCount  atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	snapshotHits  atomic.Int64
	errorCount    atomic.Int64
	trainingCount atomic.Int64
}

// Metrics contains engine counters.
type Metrics struct {
	RequestCount   int64       `json:"request_count"`
	CacheHits      int64       `json:"cache_hits"`
	CacheMisses    int64       `json:"cache_misses"`
	SnapshotHits   int64       `json:"snapshot_hits"`
	ErrorCount     int64       `json:"error_count"`
	TrainingCount  int64       `json:"training_count"`
	CacheStats     cache.Stats `json:"cache_stats"`
	ModelVersion   int         `json:"model_version"`
	LastTrainingMS int64       `json:"last_training_ms"`
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		config: cfg.Clone(),
		logger: logger.With().Str("component", "recommend").Logger(),
		status: TrainingStatus{Mode: cfg.Mode},
	}
	if cfg.Cache.Enabled {
		e.cache = cache.New(cfg.Cache.TTL)
	}
	return e, nil
}

// SetDataProvider sets the source of training records.
func (e *Engine) SetDataProvider(dp DataProvider) {
	e.dataProvider = dp
}

// SetModelStore sets where trained models are persisted.
func (e *Engine) SetModelStore(store ModelStore) {
	e.modelStore = store
}

// SetSnapshotStore sets where precomputed recommendation lists are written.
func (e *Engine) SetSnapshotStore(store SnapshotStore) {
	e.snapshots = store
}

// AddTrainingListener registers a listener notified after each model swap.
func (e *Engine) AddTrainingListener(l TrainingListener) {
	e.listeners = append(e.listeners, l)
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Close releases background resources.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// Model returns the current model and its version, or ErrNotTrained.
func (e *Engine) Model() (*Model, int, error) {
	e.modelMu.RLock()
	defer e.modelMu.RUnlock()
	if e.model == nil {
		return nil, 0, ErrNotTrained
	}
	return e.model, e.version, nil
}

// Restore loads the latest persisted model, if a model store is set.
func (e *Engine) Restore(ctx context.Context) error {
	if e.modelStore == nil {
		return nil
	}
	model, version, err := e.modelStore.LoadLatestModel(ctx)
	if err != nil {
		return fmt.Errorf("load latest model: %w", err)
	}
	if model == nil {
		return nil
	}

	e.swapModel(model, version)

	e.statusMu.Lock()
	e.status.ModelVersion = version
	e.status.LastTrainedAt = model.TrainedAt
	e.status.ItemCount = model.Matrix.NumItems()
	e.status.UserCount = model.Matrix.NumUsers()
	e.status.InteractionCount = model.Matrix.NNZ()
	e.status.Mode = model.Mode()
	e.status.Evaluation = model.Evaluation
	e.status.Diagnostics = model.Diagnostics
	e.statusMu.Unlock()

	e.logger.Info().
		Int("version", version).
		Int("users", model.Matrix.NumUsers()).
		Int("items", model.Matrix.NumItems()).
		Msg("restored persisted model")
	return nil
}

// Recommend returns the top-N items for a user.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	req, excludeSeen := e.prepareRequest(req)
	logger := e.createRequestLogger(req)

	model, version, err := e.Model()
	if errors.Is(err, ErrNotTrained) {
		return e.recommendFromSnapshot(ctx, req, excludeSeen, start, logger)
	}

	key := fmt.Sprintf("%d|%s|%d|%t", version, req.UserID, req.N, excludeSeen)
	if resp := e.cachedResponse(key, start); resp != nil {
		logger.Debug().Msg("cache hit")
		metrics.RecordRecommendation(time.Since(start), true, nil)
		return resp, nil
	}

	items, err := model.RecommendWithPolicy(req.UserID, req.N, excludeSeen)
	if err != nil {
		e.errorCount.Add(1)
		metrics.RecordRecommendation(time.Since(start), false, err)
		return nil, err
	}

	resp := &Response{
		Items:    items,
		Metadata: e.buildResponseMetadata(req, excludeSeen, version, model.TrainedAt, start),
	}
	if e.cache != nil {
		e.cache.Set(key, resp)
	}

	logger.Debug().
		Int("returned", len(items)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendations generated")
	metrics.RecordRecommendation(time.Since(start), false, nil)

	return resp, nil
}

// prepareRequest applies defaults and limits to the request.
func (e *Engine) prepareRequest(req Request) (Request, bool) {
	if req.N <= 0 {
		req.N = e.config.Limits.DefaultN
	}
	if req.N > e.config.Limits.MaxN {
		req.N = e.config.Limits.MaxN
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	excludeSeen := e.config.ExcludeSeen
	if req.ExcludeSeen != nil {
		excludeSeen = *req.ExcludeSeen
	}
	return req, excludeSeen
}

func (e *Engine) createRequestLogger(req Request) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Int("n", req.N).
		Logger()
}

func (e *Engine) cachedResponse(key string, start time.Time) *Response {
	if e.cache == nil {
		return nil
	}
	v, ok := e.cache.Get(key)
	if !ok {
		e.cacheMisses.Add(1)
		return nil
	}
	e.cacheHits.Add(1)

	cached, ok := v.(*Response)
	if !ok {
		return nil
	}
	resp := *cached
	resp.Metadata.CacheHit = true
	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	resp.Metadata.Timestamp = time.Now()
	return &resp
}

// recommendFromSnapshot serves a precomputed list while no model is loaded.
// Snapshots are written with the configured exclusion policy only.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func (e *Engine) recommendFromSnapshot(ctx context.Context, req Request, excludeSeen bool, start time.Time, logger zerolog.Logger) (*Response, error) {
	if e.snapshots == nil || excludeSeen != e.config.ExcludeSeen {
		e.errorCount.Add(1)
		return nil, ErrNotTrained
	}

	items, version, err := e.snapshots.ReadSnapshot(ctx, req.UserID)
	if err != nil {
		e.errorCount.Add(1)
		metrics.RecordRecommendation(time.Since(start), false, err)
		return nil, err
	}
	if len(items) > req.N {
		items = items[:req.N]
	}
	e.snapshotHits.Add(1)

	meta := e.buildResponseMetadata(req, excludeSeen, version, time.Time{}, start)
	meta.FromSnapshot = true
	logger.Debug().Int("version", version).Msg("served from snapshot")
	metrics.RecordRecommendation(time.Since(start), false, nil)

	return &Response{Items: items, Metadata: meta}, nil
}

func (e *Engine) buildResponseMetadata(req Request, excludeSeen bool, version int, trainedAt, start time.Time) ResponseMetadata {
	return ResponseMetadata{
		RequestID:    req.RequestID,
		UserID:       req.UserID,
		Mode:         e.config.Mode,
		ExcludeSeen:  excludeSeen,
		LatencyMS:    time.Since(start).Milliseconds(),
		ModelVersion: version,
		TrainedAt:    trainedAt,
		Timestamp:    time.Now(),
	}
}

// PredictionRow returns the full prediction row for a user.
func (e *Engine) PredictionRow(userID string) ([]ScoredItem, int, error) {
	model, version, err := e.Model()
	if err != nil {
		return nil, 0, err
	}
	row, err := model.PredictionRow(userID)
	if err != nil {
		return nil, 0, err
	}
	return row, version, nil
}

// Similar returns the nearest neighbours of an item or user.
func (e *Engine) Similar(axis Axis, id string, n int) ([]ScoredItem, error) {
	model, _, err := e.Model()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = e.config.Limits.DefaultN
	}
	if n > e.config.Limits.MaxN {
		n = e.config.Limits.MaxN
	}
	return model.Similar(axis, id, n)
}

// Train loads interaction records, runs the pipeline and swaps in the new
// model. Concurrent calls fail with ErrTrainingInProgress.
func (e *Engine) Train(ctx context.Context) error {
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	if e.dataProvider == nil {
		return fmt.Errorf("data provider not set")
	}

	runID := uuid.NewString()
	start := time.Now()
	logger := e.logger.With().Str("run_id", runID).Logger()
	e.beginTrainingStatus(runID)
	logger.Info().Str("mode", string(e.config.Mode)).Msg("starting model training")

	trainCtx, cancel := context.WithTimeout(ctx, e.config.Training.Timeout)
	defer cancel()

	model, err := e.trainModel(trainCtx, logger)
	if err != nil {
		e.failTrainingStatus(err, start)
		metrics.RecordTraining(string(e.config.Mode), time.Since(start), err)
		logger.Error().Err(err).Msg("model training failed")
		return err
	}

	version := e.swapModel(model, 0)
	e.trainingCount.Add(1)
	status := e.completeTrainingStatus(model, version, start)
	metrics.RecordTraining(string(e.config.Mode), time.Since(start), nil)
	metrics.RecordDegeneracy(model.Diagnostics.ZeroNormVectors, model.Diagnostics.ZeroNormPairs, model.Diagnostics.ZeroSimilaritySums)
	metrics.SetModelSize(model.Matrix.NumUsers(), model.Matrix.NumItems(), model.Matrix.NNZ())

	e.persist(ctx, model, version, logger)
	e.notify(ctx, status, logger)

	logger.Info().
		Int("version", version).
		Int("users", model.Matrix.NumUsers()).
		Int("items", model.Matrix.NumItems()).
		Int("interactions", model.Matrix.NNZ()).
		Float64("rmse", model.Evaluation.RMSE).
		Int64("degeneracies", model.Diagnostics.Total()).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("model training complete")

	return nil
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func (e *Engine) trainModel(ctx context.Context, logger zerolog.Logger) (*Model, error) {
	records, err := e.dataProvider.GetInteractions(ctx)
	if err != nil {
		return nil, fmt.Errorf("get interactions: %w", err)
	}
	if len(records) < e.config.Training.MinInteractions {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(records), e.config.Training.MinInteractions)
	}
	logger.Debug().Int("records", len(records)).Msg("interactions loaded")

	return Run(ctx, e.config, records, logger)
}

// swapModel installs model. A zero version means the version after both
// the installed model and the newest one in the model store.
func (e *Engine) swapModel(model *Model, version int) int {
	e.modelMu.Lock()
	if version <= 0 {
		latest := e.version
		if e.modelStore != nil {
			latest = max(latest, e.modelStore.LatestVersion())
		}
		version = latest + 1
	}
	e.model = model
	e.version = version
	e.modelMu.Unlock()

	e.InvalidateCache()
	return version
}

// InvalidateCache drops all cached responses.
func (e *Engine) InvalidateCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func (e *Engine) persist(ctx context.Context, model *Model, version int, logger zerolog.Logger) {
	if e.modelStore != nil {
		if err := e.modelStore.SaveModel(ctx, version, model); err != nil {
			logger.Warn().Err(err).Int("version", version).Msg("failed to persist model")
		}
	}

	if e.snapshots == nil || e.config.Training.SnapshotN == 0 {
		return
	}
	users := model.Matrix.Users()
	lists := make(map[string][]ScoredItem, users.Len())
	for u := 0; u < users.Len(); u++ {
		items, err := model.Recommend(users.ID(u), e.config.Training.SnapshotN)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", users.ID(u)).Msg("failed to build snapshot list")
			continue
		}
		lists[users.ID(u)] = items
	}
	if err := e.snapshots.WriteSnapshot(ctx, version, lists); err != nil {
		logger.Warn().Err(err).Int("version", version).Msg("failed to write recommendation snapshot")
	}
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func (e *Engine) notify(ctx context.Context, status TrainingStatus, logger zerolog.Logger) {
	for _, l := range e.listeners {
		if err := l.ModelTrained(ctx, status); err != nil {
			logger.Warn().Err(err).Msg("training listener failed")
		}
	}
}

func (e *Engine) beginTrainingStatus(runID string) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status.IsTraining = true
	e.status.RunID = runID
	e.status.LastError = ""
}

func (e *Engine) failTrainingStatus(err error, start time.Time) {
	e.errorCount.Add(1)
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status.IsTraining = false
	e.status.LastError = err.Error()
	e.status.LastTrainingDurationMS = time.Since(start).Milliseconds()
}

func (e *Engine) completeTrainingStatus(model *Model, version int, start time.Time) TrainingStatus {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status.IsTraining = false
	e.status.LastTrainedAt = model.TrainedAt
	e.status.LastTrainingDurationMS = time.Since(start).Milliseconds()
	e.status.InteractionCount = model.Matrix.NNZ()
	e.status.ItemCount = model.Matrix.NumItems()
	e.status.UserCount = model.Matrix.NumUsers()
	e.status.ModelVersion = version
	e.status.Mode = model.Mode()
	e.status.Evaluation = model.Evaluation
	e.status.Diagnostics = model.Diagnostics
	return e.status
}

// Status returns the current training status.
func (e *Engine) Status() TrainingStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// Diagnostics returns the degeneracy counters of the current model.
func (e *Engine) Diagnostics() DiagnosticsSnapshot {
	return e.Status().Diagnostics
}

// GetMetrics returns engine counters.
func (e *Engine) GetMetrics() Metrics {
	status := e.Status()
	m := Metrics{
		RequestCount:   e.requestCount.Load(),
		CacheHits:      e.cacheHits.Load(),
		CacheMisses:    e.cacheMisses.Load(),
		SnapshotHits:   e.snapshotHits.Load(),
		ErrorCount:     e.errorCount.Load(),
		TrainingCount:  e.trainingCount.Load(),
		ModelVersion:   status.ModelVersion,
		LastTrainingMS: status.LastTrainingDurationMS,
	}
	if e.cache != nil {
		m.CacheStats = e.cache.Stats()
	}
	return m
}
