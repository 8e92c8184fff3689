// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

// Package recommend implements a memory-based collaborative filtering engine
// for implicit feedback such as artist play counts.
//
// # Architecture
//
// The engine is a strict forward pipeline. Each stage is a pure function of
// the previous stage's immutable output:
//
//	[]InteractionRecord
//	    -> BuildInteractionMatrix   (sparse, lexically indexed)
//	    -> ComputeSimilarity        (cosine distance over items or users)
//	    -> Predict                  (item-based or user-based aggregation)
//	    -> Recommender              (top-N per user)
//
// Similarity and prediction are computed over disjoint row blocks by a
// worker pool. Blocks only read the shared interaction matrix and write their
// own rows, so the only synchronization is the final join. Cancellation is
// checked between blocks.
//
// # Similarity Convention
//
// SimilarityEngine produces cosine distance in [0, 2]. The prediction stage
// weights neighbours by similarity, defined everywhere as
//
//	similarity = 1 - distance
//
// for both item-based and user-based modes.
//
// # Numeric Degeneracy
//
// Zero-norm vectors (distance 1) and zero similarity sums (prediction 0 or
// the user mean) are handled by fallback values. Every occurrence is counted
// in the run's Diagnostics and never surfaces as NaN.
//
// # Usage
//
//	cfg := recommend.DefaultConfig()
//	model, err := recommend.Run(ctx, cfg, records, logger)
//	if err != nil {
//	    return err
//	}
//	items, err := model.Recommend("user-42", 10)
//
// For long running services use Engine, which loads records from a
// DataProvider, swaps trained models atomically and serves requests.
//
// # Thread Safety
//
// InteractionMatrix, SimilarityMatrix, PredictionMatrix and Model are
// immutable once built and safe for concurrent reads. Engine guards model
// replacement with a RWMutex and rejects overlapping training runs.
package recommend
