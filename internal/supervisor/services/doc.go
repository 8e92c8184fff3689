// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system


// Package services adapts application components to suture.Service.
//
//   - HTTPServerService: runs an *http.Server and shuts it down gracefully
//   - TrainingService: trains on startup and on a fixed interval
package services
