// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system


// Command lfmrec runs the recommendation pipeline offline.
//
//	lfmrec import --db data.duckdb user_artists.dat
//	lfmrec train --db data.duckdb --model-dir models --mode item
//	lfmrec train --input user_artists.dat --model-dir models
//	lfmrec recommend --model-dir models --n 10 2
//	lfmrec similar --model-dir models --axis item 51
//	lfmrec models --model-dir models
//	lfmrec stats --db data.duckdb
//
// Results are written to standard output as JSON; logs go to standard error.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/urfave/cli/v3"

	"github.com/alabarga/last-fm-recommender-system/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args, os.Stdout); err != nil {
		logging.Error().Err(err).Msg("lfmrec failed")
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

// run executes the CLI with args, writing results to out.
func run(ctx context.Context, args []string, out io.Writer) error {
	var logLevel string

	app := &cli.Command{
		Name:   "lfmrec",
		Usage:  "collaborative filtering for Last.fm listening counts",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (trace, debug, info, warn, error)",
				Value:       "warn",
				Sources:     cli.EnvVars("LOG_LEVEL"),
				Destination: &logLevel,
			},
		},
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			logging.Init(logging.Config{Level: logLevel, Format: "console", Output: os.Stderr})
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdImport(),
			cmdTrain(),
			cmdRecommend(),
			cmdSimilar(),
			cmdModels(),
			cmdStats(),
		},
	}

	return app.Run(ctx, args)
}
