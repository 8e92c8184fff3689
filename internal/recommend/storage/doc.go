// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

// Package storage persists trained recommendation models and precomputed
// recommendation lists.
//
// # Model Files
//
// FileStore implements recommend.ModelStore. Models are written as
// gob-encoded, gzip-compressed files with a SHA-256 checksum of the
// uncompressed payload:
//
//	filename: {name}_v{version}.gob.gz
//
//	structure:
//	  - Metadata (ModelMetadata)
//	  - CompressedData (gzip-compressed gob-encoded model state)
//
// The interaction matrix is stored as a coordinate list and rebuilt on
// load; the stored fingerprint must match the rebuilt matrix or the load
// fails. Similarity and prediction matrices are stored dense. Files are
// written to a temporary name and renamed into place, and versions beyond
// the retention limit are removed after each save.
//
// # Snapshots
//
// BadgerSnapshotStore implements recommend.SnapshotStore on BadgerDB. Each
// user's top-N list is a JSON value under
//
//	snapshot:list:{version}:{user_id}
//
// and the key snapshot:version points readers at the current version.
// Writing a new snapshot flips that pointer and drops the previous
// version's keys.
//
// # Usage Example
//
//	store, err := storage.NewFileStore("/data/models", "model", 3)
//	if err != nil {
//	    return err
//	}
//	engine.SetModelStore(store)
//
//	snapshots, err := storage.OpenBadgerSnapshotStore("/data/snapshots")
//	if err != nil {
//	    return err
//	}
//	defer snapshots.Close()
//	engine.SetSnapshotStore(snapshots)
//
// # Thread Safety
//
// Both stores are safe for concurrent use.
package storage
