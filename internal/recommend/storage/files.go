// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
)

const modelFileSuffix = ".gob.gz"

// ModelMetadata contains information about a stored model.
type ModelMetadata struct {
	// Name is the file name prefix (e.g., "model").
	Name string `json:"name"`

	// Version is the model version (monotonically increasing).
	Version int `json:"version"`

	// Mode is the prediction mode the model was trained with.
	Mode string `json:"mode"`

	// TrainedAt is when the model was trained.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the model was saved.
	SavedAt time.Time `json:"saved_at"`

	// InteractionCount is the number of nonzero cells.
	InteractionCount int `json:"interaction_count"`

	// ItemCount is the number of unique items.
	ItemCount int `json:"item_count"`

	// UserCount is the number of unique users.
	UserCount int `json:"user_count"`

	// Checksum is the SHA-256 checksum of the model data.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed model size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// TrainingDurationMS is how long training took.
	TrainingDurationMS int64 `json:"training_duration_ms"`
}

// modelState is the serializable form of a recommend.Model. The
// interaction matrix is kept in coordinate-list form; the similarity and
// prediction matrices are dense and row-major.
type modelState struct {
	Mode        string
	ExcludeSeen bool
	ItemIDs     []string
	UserIDs     []string
	Coordinates []recommend.Coordinate
	Source      uint64

	SimilarityAxis string
	Distances      []float64
	Predictions    []float64

	Diagnostics recommend.DiagnosticsSnapshot
	Evaluation  recommend.Evaluation
	TrainedAt   time.Time
	Duration    time.Duration
}

// storedFile is the on-disk format for model files.
type storedFile struct {
	Metadata       ModelMetadata
	CompressedData []byte
}

// FileStore persists models as versioned, gzip-compressed gob files named
// {name}_v{version}.gob.gz. It implements recommend.ModelStore.
type FileStore struct {
	baseDir string
	name    string
	keep    int

	mu     sync.RWMutex
	latest int
}

var _ recommend.ModelStore = (*FileStore)(nil)

// NewFileStore creates a model store at baseDir. keep is the number of
// versions retained after each save; values below 1 keep every version.
func NewFileStore(baseDir, name string, keep int) (*FileStore, error) {
	if name == "" {
		name = "model"
	}
	if strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid model name %q", name)
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &FileStore{baseDir: baseDir, name: name, keep: keep}

	versions, err := s.scanVersions()
	if err != nil {
		return nil, fmt.Errorf("scan existing models: %w", err)
	}
	if len(versions) > 0 {
		s.latest = versions[0]
	}
	return s, nil
}

// scanVersions returns the stored versions of this store's models, newest
// first.
func (s *FileStore) scanVersions() ([]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	var versions []int
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), modelFileSuffix) {
			continue
		}
		name, version := parseModelFilename(strings.TrimSuffix(entry.Name(), modelFileSuffix))
		if name != s.name || version <= 0 {
			continue
		}
		versions = append(versions, version)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	return versions, nil
}

// parseModelFilename extracts the name and version from a filename like "model_v3".
func parseModelFilename(base string) (name string, version int) {
	idx := strings.LastIndex(base, "_v")
	if idx <= 0 {
		return "", 0
	}
	if _, err := fmt.Sscanf(base[idx+2:], "%d", &version); err != nil {
		return "", 0
	}
	if fmt.Sprintf("%d", version) != base[idx+2:] {
		return "", 0
	}
	return base[:idx], version
}

// SaveModel writes model as version and prunes versions beyond the
// retention limit.
func (s *FileStore) SaveModel(ctx context.Context, version int, model *recommend.Model) error {
	if version <= 0 {
		return fmt.Errorf("invalid model version %d", version)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	state := encodeState(model)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	meta := ModelMetadata{
		Name:               s.name,
		Version:            version,
		Mode:               state.Mode,
		TrainedAt:          model.TrainedAt,
		SavedAt:            time.Now(),
		InteractionCount:   model.Matrix.NNZ(),
		ItemCount:          model.Matrix.NumItems(),
		UserCount:          model.Matrix.NumUsers(),
		Checksum:           hex.EncodeToString(hash[:]),
		SizeBytes:          int64(compressed.Len()),
		TrainingDurationMS: model.Duration.Milliseconds(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write to a temporary file and rename so readers never see a partial model.
	tmp, err := os.CreateTemp(s.baseDir, s.name+"_*.tmp")
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() //nolint:errcheck // no-op after successful rename

	if err := gob.NewEncoder(tmp).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmpName, s.modelPath(version)); err != nil {
		return fmt.Errorf("rename model file: %w", err)
	}

	if version > s.latest {
		s.latest = version
	}
	return s.pruneLocked(version)
}

// LoadLatestModel loads the newest stored model. It returns a nil model and
// version 0 when the store is empty.
func (s *FileStore) LoadLatestModel(ctx context.Context) (*recommend.Model, int, error) {
	s.mu.RLock()
	version := s.latest
	s.mu.RUnlock()

	if version == 0 {
		return nil, 0, nil
	}
	model, _, err := s.Load(ctx, version)
	if err != nil {
		return nil, 0, err
	}
	return model, version, nil
}

// Load loads a specific model version.
func (s *FileStore) Load(ctx context.Context, version int) (*recommend.Model, *ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	sf, rawData, err := s.readFile(version)
	s.mu.RUnlock()
	if err != nil {
		return nil, nil, err
	}

	var state modelState
	if err := gob.NewDecoder(bytes.NewReader(rawData)).Decode(&state); err != nil {
		return nil, nil, fmt.Errorf("decode model: %w", err)
	}

	model, err := decodeState(&state)
	if err != nil {
		return nil, nil, fmt.Errorf("rebuild model v%d: %w", version, err)
	}
	return model, &sf.Metadata, nil
}

// readFile reads, decompresses and verifies a model file.
func (s *FileStore) readFile(version int) (*storedFile, []byte, error) {
	f, err := os.Open(s.modelPath(version))
	if err != nil {
		return nil, nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, nil, fmt.Errorf("read model file: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, nil, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(rawData)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, nil, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, checksum)
	}
	return &sf, rawData, nil
}

// ListModels returns metadata for all stored versions, newest first.
func (s *FileStore) ListModels(ctx context.Context) ([]ModelMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions, err := s.scanVersions()
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	models := make([]ModelMetadata, 0, len(versions))
	for _, v := range versions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(s.modelPath(v))
		if err != nil {
			continue
		}
		var sf storedFile
		err = gob.NewDecoder(f).Decode(&sf)
		_ = f.Close() //nolint:errcheck // error on close after read is not actionable
		if err != nil {
			continue
		}
		models = append(models, sf.Metadata)
	}
	return models, nil
}

// LatestVersion returns the newest stored version, or 0.
func (s *FileStore) LatestVersion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// pruneLocked removes versions beyond the retention limit. It fails when
// the just saved version is among them. s.mu must be held.
func (s *FileStore) pruneLocked(saved int) error {
	if s.keep < 1 {
		return nil
	}
	versions, err := s.scanVersions()
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}
	var pruned bool
	for i := s.keep; i < len(versions); i++ {
		if err := os.Remove(s.modelPath(versions[i])); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("prune model v%d: %w", versions[i], err)
		}
		pruned = pruned || versions[i] == saved
	}
	if pruned {
		return fmt.Errorf("model v%d is older than the %d retained versions", saved, s.keep)
	}
	return nil
}

// modelPath returns the file path for a model version.
func (s *FileStore) modelPath(version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", s.name, version, modelFileSuffix))
}

func encodeState(model *recommend.Model) *modelState {
	state := &modelState{
		Mode:        string(model.Mode()),
		ExcludeSeen: model.ExcludeSeen(),
		ItemIDs:     model.Matrix.Items().IDs(),
		UserIDs:     model.Matrix.Users().IDs(),
		Coordinates: model.Matrix.Coordinates(),
		Source:      model.Matrix.Fingerprint(),
		Predictions: model.Predictions.Values(),
		Diagnostics: model.Diagnostics,
		Evaluation:  model.Evaluation,
		TrainedAt:   model.TrainedAt,
		Duration:    model.Duration,
	}
	if model.Similarity != nil {
		state.SimilarityAxis = string(model.Similarity.Axis())
		state.Distances = model.Similarity.Distances()
	}
	return state
}

func decodeState(state *modelState) (*recommend.Model, error) {
	matrix, err := recommend.NewInteractionMatrixFromCoordinates(state.ItemIDs, state.UserIDs, state.Coordinates)
	if err != nil {
		return nil, err
	}
	if matrix.Fingerprint() != state.Source {
		return nil, &recommend.DimensionError{
			Op:   "restore",
			Want: fmt.Sprintf("source %016x", state.Source),
			Got:  fmt.Sprintf("source %016x", matrix.Fingerprint()),
		}
	}

	mode, err := recommend.ParseMode(state.Mode)
	if err != nil {
		return nil, err
	}
	predictions, err := recommend.NewPredictionMatrix(mode, state.UserIDs, state.ItemIDs, state.Predictions, state.Source)
	if err != nil {
		return nil, err
	}

	var sim *recommend.SimilarityMatrix
	if state.SimilarityAxis != "" {
		axis, err := recommend.ParseAxis(state.SimilarityAxis)
		if err != nil {
			return nil, err
		}
		ids := state.ItemIDs
		if axis == recommend.AxisUser {
			ids = state.UserIDs
		}
		sim, err = recommend.NewSimilarityMatrix(axis, ids, state.Distances, state.Source)
		if err != nil {
			return nil, err
		}
	}

	model, err := recommend.NewModel(matrix, sim, predictions, state.ExcludeSeen)
	if err != nil {
		return nil, err
	}
	model.Diagnostics = state.Diagnostics
	model.Evaluation = state.Evaluation
	model.TrainedAt = state.TrainedAt
	model.Duration = state.Duration
	return model, nil
}

//nolint:gochecknoinits // gob.Register must be called in init for type registration
func init() {
	gob.Register(modelState{})
	gob.Register(storedFile{})
}
