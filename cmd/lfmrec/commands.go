// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/alabarga/last-fm-recommender-system/internal/config"
	"github.com/alabarga/last-fm-recommender-system/internal/database"
	"github.com/alabarga/last-fm-recommender-system/internal/logging"
	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
	"github.com/alabarga/last-fm-recommender-system/internal/recommend/storage"
)

// errMissingArg is returned when a positional argument is absent.
var errMissingArg = errors.New("missing argument")

func dbFlag(dest *string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "db",
		Usage:       "DuckDB file holding the interaction log (empty for in-memory)",
		Sources:     cli.EnvVars("DUCKDB_PATH"),
		Destination: dest,
		Category:    "Storage",
	}
}

func modelDirFlag(dest *string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "model-dir",
		Usage:       "directory of versioned model files",
		Value:       "models",
		Sources:     cli.EnvVars("MODEL_DIR"),
		Destination: dest,
		Category:    "Storage",
	}
}

func openDB(path string) (*database.DB, error) {
	return database.New(&config.DatabaseConfig{Path: path})
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdImport() *cli.Command {
	var (
		dbPath  string
		opts    database.ImportOptions
		replace bool
	)

	return &cli.Command{
		Name:      "import",
		Usage:     "Load a user,item,weight file into the interaction log",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			dbFlag(&dbPath),
			&cli.StringFlag{
				Name:        "delimiter",
				Usage:       "column delimiter (default: tab for .dat/.tsv, comma otherwise)",
				Destination: &opts.Delimiter,
			},
			&cli.BoolFlag{
				Name:        "header",
				Usage:       "the first line holds column names",
				Destination: &opts.Header,
			},
			&cli.StringFlag{
				Name:        "source",
				Usage:       "label stored with every row (default: file name)",
				Destination: &opts.Source,
			},
			&cli.BoolFlag{
				Name:        "replace",
				Usage:       "delete rows previously imported under the same source first",
				Destination: &replace,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("%w: FILE", errMissingArg)
			}

			db, err := openDB(dbPath)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if replace {
				source := opts.Source
				if source == "" {
					source = filepath.Base(path)
				}
				deleted, err := db.DeleteInteractions(ctx, source)
				if err != nil {
					return err
				}
				logging.Info().Str("source", source).Int64("rows", deleted).Msg("Removed previous import")
			}

			n, err := db.ImportFile(ctx, path, opts)
			if err != nil {
				return err
			}
			stats, err := db.Stats(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.Root().Writer, map[string]interface{}{
				"imported": n,
				"stats":    stats,
			})
		},
	}
}

// trainSummary is printed after a training run.
type trainSummary struct {
	Version      int                           `json:"version"`
	Mode         recommend.Mode                `json:"mode"`
	Users        int                           `json:"users"`
	Items        int                           `json:"items"`
	Interactions int                           `json:"interactions"`
	DurationMS   int64                         `json:"duration_ms"`
	Evaluation   recommend.Evaluation          `json:"evaluation"`
	Diagnostics  recommend.DiagnosticsSnapshot `json:"diagnostics"`
}

func cmdTrain() *cli.Command {
	var (
		dbPath      string
		input       string
		modelDir    string
		mode        string
		includeSeen bool
		keep        int
		workers     int
	)

	return &cli.Command{
		Name:    "train",
		Aliases: []string{"run"},
		Usage:   "Train a model and save it as the next version",
		Flags: []cli.Flag{
			dbFlag(&dbPath),
			&cli.StringFlag{
				Name:        "input",
				Usage:       "import a delimited file, replacing its earlier rows, before training",
				Destination: &input,
			},
			modelDirFlag(&modelDir),
			&cli.StringFlag{
				Name:        "mode",
				Usage:       "neighbourhood mode: item or user",
				Value:       string(recommend.ModeItemBased),
				Sources:     cli.EnvVars("RECOMMEND_MODE"),
				Destination: &mode,
			},
			&cli.BoolFlag{
				Name:        "include-seen",
				Usage:       "stored models recommend already seen items by default",
				Destination: &includeSeen,
			},
			&cli.IntFlag{
				Name:        "keep",
				Usage:       "model versions to retain",
				Value:       3,
				Destination: &keep,
			},
			&cli.IntFlag{
				Name:        "workers",
				Usage:       "similarity workers (0 = GOMAXPROCS)",
				Destination: &workers,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, err := recommend.ParseMode(mode)
			if err != nil {
				return err
			}
			cfg := recommend.DefaultConfig()
			cfg.Mode = m
			cfg.ExcludeSeen = !includeSeen
			cfg.Similarity.NumWorkers = workers

			db, err := openDB(dbPath)
			if err != nil {
				return err
			}
			defer closeDB(db)

			// Rows of an earlier run from the same file are replaced, not
			// summed with the new ones.
			if input != "" {
				if _, err := db.DeleteInteractions(ctx, filepath.Base(input)); err != nil {
					return err
				}
				if _, err := db.ImportFile(ctx, input, database.ImportOptions{}); err != nil {
					return err
				}
			}

			records, err := db.GetInteractions(ctx)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return recommend.ErrInsufficientData
			}

			model, err := recommend.Run(ctx, cfg, records, logging.WithComponent("train"))
			if err != nil {
				return err
			}

			store, err := storage.NewFileStore(modelDir, "model", keep)
			if err != nil {
				return err
			}
			version := store.LatestVersion() + 1
			if err := store.SaveModel(ctx, version, model); err != nil {
				return err
			}

			return writeJSON(cmd.Root().Writer, &trainSummary{
				Version:      version,
				Mode:         model.Mode(),
				Users:        model.Matrix.NumUsers(),
				Items:        model.Matrix.NumItems(),
				Interactions: model.Matrix.NNZ(),
				DurationMS:   model.Duration.Milliseconds(),
				Evaluation:   model.Evaluation,
				Diagnostics:  model.Diagnostics,
			})
		},
	}
}

// loadModel reads the latest model version from dir.
func loadModel(ctx context.Context, dir string) (*recommend.Model, int, error) {
	store, err := storage.NewFileStore(dir, "model", 0)
	if err != nil {
		return nil, 0, err
	}
	model, version, err := store.LoadLatestModel(ctx)
	if err != nil {
		return nil, 0, err
	}
	if model == nil {
		return nil, 0, fmt.Errorf("%w in %s", recommend.ErrNotTrained, dir)
	}
	return model, version, nil
}

func cmdRecommend() *cli.Command {
	var (
		modelDir    string
		n           int
		includeSeen bool
		excludeSeen bool
	)

	return &cli.Command{
		Name:      "recommend",
		Usage:     "Print the top-N items for a user from the latest model",
		ArgsUsage: "USER_ID",
		Flags: []cli.Flag{
			modelDirFlag(&modelDir),
			&cli.IntFlag{
				Name:        "n",
				Usage:       "number of items",
				Value:       10,
				Destination: &n,
			},
			&cli.BoolFlag{
				Name:        "include-seen",
				Usage:       "allow items the user already listened to",
				Destination: &includeSeen,
			},
			&cli.BoolFlag{
				Name:        "exclude-seen",
				Usage:       "drop items the user already listened to",
				Destination: &excludeSeen,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			userID := cmd.Args().First()
			if userID == "" {
				return fmt.Errorf("%w: USER_ID", errMissingArg)
			}
			if includeSeen && excludeSeen {
				return errors.New("--include-seen and --exclude-seen are mutually exclusive")
			}

			model, version, err := loadModel(ctx, modelDir)
			if err != nil {
				return err
			}

			policy := model.ExcludeSeen()
			switch {
			case includeSeen:
				policy = false
			case excludeSeen:
				policy = true
			}

			items, err := model.RecommendWithPolicy(userID, n, policy)
			if err != nil {
				return err
			}
			if items == nil {
				items = []recommend.ScoredItem{}
			}
			return writeJSON(cmd.Root().Writer, map[string]interface{}{
				"user_id":       userID,
				"model_version": version,
				"exclude_seen":  policy,
				"items":         items,
			})
		},
	}
}

func cmdSimilar() *cli.Command {
	var (
		modelDir string
		axis     string
		n        int
	)

	return &cli.Command{
		Name:      "similar",
		Usage:     "Print the nearest items or users from the latest model",
		ArgsUsage: "ID",
		Flags: []cli.Flag{
			modelDirFlag(&modelDir),
			&cli.StringFlag{
				Name:        "axis",
				Usage:       "item or user",
				Value:       string(recommend.AxisItem),
				Destination: &axis,
			},
			&cli.IntFlag{
				Name:        "n",
				Usage:       "number of neighbours",
				Value:       10,
				Destination: &n,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("%w: ID", errMissingArg)
			}
			a, err := recommend.ParseAxis(axis)
			if err != nil {
				return err
			}

			model, _, err := loadModel(ctx, modelDir)
			if err != nil {
				return err
			}
			neighbours, err := model.Similar(a, id, n)
			if err != nil {
				return err
			}
			if neighbours == nil {
				neighbours = []recommend.ScoredItem{}
			}
			return writeJSON(cmd.Root().Writer, map[string]interface{}{
				"id":      id,
				"axis":    a,
				"similar": neighbours,
			})
		},
	}
}

func cmdModels() *cli.Command {
	var modelDir string

	return &cli.Command{
		Name:  "models",
		Usage: "List stored model versions",
		Flags: []cli.Flag{modelDirFlag(&modelDir)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := storage.NewFileStore(modelDir, "model", 0)
			if err != nil {
				return err
			}
			list, err := store.ListModels(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.Root().Writer, list)
		},
	}
}

func cmdStats() *cli.Command {
	var dbPath string

	return &cli.Command{
		Name:  "stats",
		Usage: "Print interaction log counts",
		Flags: []cli.Flag{dbFlag(&dbPath)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			db, err := openDB(dbPath)
			if err != nil {
				return err
			}
			defer closeDB(db)

			stats, err := db.Stats(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.Root().Writer, stats)
		},
	}
}

func closeDB(db *database.DB) {
	if err := db.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close database")
	}
}
