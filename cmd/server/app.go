// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system


package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alabarga/last-fm-recommender-system/internal/api"
	"github.com/alabarga/last-fm-recommender-system/internal/config"
	"github.com/alabarga/last-fm-recommender-system/internal/database"
	"github.com/alabarga/last-fm-recommender-system/internal/events"
	"github.com/alabarga/last-fm-recommender-system/internal/logging"
	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
	"github.com/alabarga/last-fm-recommender-system/internal/recommend/storage"
	"github.com/alabarga/last-fm-recommender-system/internal/supervisor"
	"github.com/alabarga/last-fm-recommender-system/internal/supervisor/services"
)

// historyLimit is the number of training events kept for the history endpoint.
const historyLimit = 50

// app holds every long-lived component of the server.
type app struct {
	cfg       *config.Config
	db        *database.DB
	engine    *recommend.Engine
	snapshots *storage.BadgerSnapshotStore
	bus       *events.Bus
	handler   *api.Handler
	server    *http.Server
}

// newApp builds the component graph. Components that fail to open are
// closed again before returning the error.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.db, err = database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	logging.Info().Str("path", cfg.Database.Path).Msg("Database initialized")

	a.engine, err = recommend.NewEngine(cfg.ToRecommendConfig(), logging.WithComponent("recommend"))
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	a.engine.SetDataProvider(database.NewInteractionProvider(a.db, database.BreakerSettings{
		Name:                "interactions",
		ConsecutiveFailures: uint32(cfg.Database.BreakerFailures), //nolint:gosec // validated min=1
		Timeout:             cfg.Database.BreakerTimeout,
	}))

	if err = a.initStores(ctx); err != nil {
		return nil, err
	}
	var history *events.History
	if history, err = a.initEvents(); err != nil {
		return nil, err
	}

	handlerCfg := api.HandlerConfig{
		Engine:        a.engine,
		DB:            a.db,
		TrainInterval: cfg.Server.TrainInterval,
		TrainBurst:    cfg.Server.TrainBurst,
		BaseContext:   ctx,
	}
	if history != nil {
		handlerCfg.History = history
	}
	a.handler = api.NewHandler(handlerCfg)

	mwCfg := api.DefaultChiMiddlewareConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		mwCfg.CORSAllowedOrigins = cfg.Server.CORSOrigins
	}
	mwCfg.RateLimitRequests = cfg.Server.RateLimitRequests
	mwCfg.RateLimitWindow = cfg.Server.RateLimitWindow
	mwCfg.RateLimitDisabled = cfg.Server.RateLimitRequests == 0

	a.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(a.handler, api.NewChiMiddleware(mwCfg)).Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

// initStores attaches model and snapshot persistence and restores the last
// saved model.
func (a *app) initStores(ctx context.Context) error {
	st := a.cfg.Storage

	if st.ModelDir != "" {
		store, err := storage.NewFileStore(st.ModelDir, "model", st.KeepVersions)
		if err != nil {
			return fmt.Errorf("model store: %w", err)
		}
		a.engine.SetModelStore(store)
	}

	if st.SnapshotDir != "" || st.SnapshotInMemory {
		snaps, err := storage.OpenBadgerSnapshotStore(st.SnapshotDir)
		if err != nil {
			return fmt.Errorf("snapshot store: %w", err)
		}
		a.snapshots = snaps
		a.engine.SetSnapshotStore(snaps)
	}

	if err := a.engine.Restore(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to restore saved model, waiting for training")
	}
	return nil
}

// initEvents creates the event bus and wires training notifications into
// cache invalidation and the training history.
func (a *app) initEvents() (*events.History, error) {
	if !a.cfg.Events.Enabled {
		return nil, nil
	}

	busCfg := events.DefaultBusConfig()
	busCfg.OutputBuffer = a.cfg.Events.OutputBuffer

	bus, err := events.NewBus(busCfg, events.NewZerologAdapter(logging.WithComponent("events")))
	if err != nil {
		return nil, fmt.Errorf("event bus: %w", err)
	}
	a.bus = bus

	history := events.NewHistory(historyLimit)
	bus.AddConsumerHandler("cache-invalidation", events.TopicModelTrained, events.NewCacheInvalidationHandler(a.engine))
	bus.AddConsumerHandler("training-history", events.TopicModelTrained, history.Handler())
	a.engine.AddTrainingListener(events.NewTrainingPublisher(bus.Publisher()))

	return history, nil
}

// register adds the app's services to the supervisor tree.
func (a *app) register(tree *supervisor.Tree) {
	if a.bus != nil {
		tree.AddEventService(a.bus)
	}

	tree.AddEngineService(services.NewTrainingService(a.engine, services.TrainingServiceConfig{
		TrainOnStartup: a.cfg.Recommend.TrainOnStartup,
		Interval:       a.cfg.Recommend.TrainInterval,
	}, logging.WithComponent("training")))

	tree.AddAPIService(services.NewHTTPServerService(a.server, a.cfg.Server.ShutdownTimeout).OnShutdown(a.handler.Wait))
}

// Close releases every opened component. It is safe on a partially built app.
func (a *app) Close() {
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing event bus")
		}
	}
	if a.engine != nil {
		a.engine.Close()
	}
	if a.snapshots != nil {
		if err := a.snapshots.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing snapshot store")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}
}
