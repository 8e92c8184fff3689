// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

// Package models defines the JSON payloads served by the HTTP API.
//
// Every response is wrapped in APIResponse; failures carry an APIError with
// a stable code. Recommendation payloads embed recommend.ScoredItem
// directly so scores are reported exactly as the engine ranked them.
package models
