// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
)

// Key layout for BadgerDB storage
const (
	snapshotVersionKey = "snapshot:version"
	snapshotListPrefix = "snapshot:list:"
)

// BadgerSnapshotStore implements recommend.SnapshotStore using BadgerDB.
// Each write replaces the previous snapshot; readers see either the old or
// the new version, never a mix.
type BadgerSnapshotStore struct {
	db     *badger.DB
	ownsDB bool
}

var _ recommend.SnapshotStore = (*BadgerSnapshotStore)(nil)

// NewBadgerSnapshotStore wraps an already opened database.
func NewBadgerSnapshotStore(db *badger.DB) *BadgerSnapshotStore {
	return &BadgerSnapshotStore{db: db}
}

// OpenBadgerSnapshotStore opens a BadgerDB at dir. An empty dir opens an
// in-memory database.
func OpenBadgerSnapshotStore(dir string) (*BadgerSnapshotStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &BadgerSnapshotStore{db: db, ownsDB: true}, nil
}

// Close closes the database if it was opened by this store.
func (s *BadgerSnapshotStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

func listKey(version int, userID string) []byte {
	return []byte(fmt.Sprintf("%s%d:%s", snapshotListPrefix, version, userID))
}

func versionPrefix(version int) []byte {
	return []byte(fmt.Sprintf("%s%d:", snapshotListPrefix, version))
}

// WriteSnapshot stores lists under version, then switches readers to it and
// drops the previous version.
func (s *BadgerSnapshotStore) WriteSnapshot(ctx context.Context, version int, lists map[string][]recommend.ScoredItem) error {
	if version <= 0 {
		return fmt.Errorf("invalid snapshot version %d", version)
	}
	previous, err := s.currentVersion()
	if err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for userID, items := range lists {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("marshal snapshot for %q: %w", userID, err)
		}
		if err := wb.Set(listKey(version, userID), data); err != nil {
			return fmt.Errorf("set snapshot for %q: %w", userID, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(version))
		return txn.Set([]byte(snapshotVersionKey), buf[:])
	})
	if err != nil {
		return fmt.Errorf("set snapshot version: %w", err)
	}

	if previous > 0 && previous != version {
		if err := s.db.DropPrefix(versionPrefix(previous)); err != nil {
			return fmt.Errorf("drop snapshot v%d: %w", previous, err)
		}
	}
	return nil
}

// ReadSnapshot returns the stored list for userID and the snapshot version.
// It returns recommend.ErrNotTrained when no snapshot exists and
// recommend.ErrUnknownUser when the user has no list.
func (s *BadgerSnapshotStore) ReadSnapshot(ctx context.Context, userID string) ([]recommend.ScoredItem, int, error) {
	var (
		items   []recommend.ScoredItem
		version int
	)

	err := s.db.View(func(txn *badger.Txn) error {
		v, err := readVersion(txn)
		if err != nil {
			return err
		}
		if v == 0 {
			return recommend.ErrNotTrained
		}
		version = v

		item, err := txn.Get(listKey(v, userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %q", recommend.ErrUnknownUser, userID)
		}
		if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &items)
		})
	})
	if err != nil {
		return nil, 0, err
	}
	return items, version, nil
}

// Version returns the current snapshot version, or 0.
func (s *BadgerSnapshotStore) Version() (int, error) {
	return s.currentVersion()
}

// Count returns the number of user lists in the current snapshot.
func (s *BadgerSnapshotStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		v, err := readVersion(txn)
		if err != nil || v == 0 {
			return err
		}
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := versionPrefix(v)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func (s *BadgerSnapshotStore) currentVersion() (int, error) {
	var version int
	err := s.db.View(func(txn *badger.Txn) error {
		v, err := readVersion(txn)
		version = v
		return err
	})
	return version, err
}

func readVersion(txn *badger.Txn) (int, error) {
	item, err := txn.Get([]byte(snapshotVersionKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get snapshot version: %w", err)
	}
	var version int
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt snapshot version (%d bytes)", len(val))
		}
		version = int(binary.BigEndian.Uint64(val))
		return nil
	})
	return version, err
}
