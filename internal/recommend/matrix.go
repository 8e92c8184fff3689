// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package recommend

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
)

// Index is an immutable bijection between identifiers and dense indices.
// Identifiers are kept in lexical order, so index i is the i-th smallest id.
type Index struct {
	ids []string
	pos map[string]int
}

func newIndex(sorted []string) *Index {
	pos := make(map[string]int, len(sorted))
	for i, id := range sorted {
		pos[id] = i
	}
	return &Index{ids: sorted, pos: pos}
}

// Len returns the number of identifiers.
func (x *Index) Len() int { return len(x.ids) }

// ID returns the identifier at index i.
func (x *Index) ID(i int) string { return x.ids[i] }

// Lookup returns the index of id.
func (x *Index) Lookup(id string) (int, bool) {
	i, ok := x.pos[id]
	return i, ok
}

// IDs returns a copy of the identifiers in index order.
func (x *Index) IDs() []string {
	out := make([]string, len(x.ids))
	copy(out, x.ids)
	return out
}

// Entry is one nonzero cell of a sparse vector.
type Entry struct {
	Index  int
	Weight float64
}

// Coordinate is one nonzero cell of the interaction matrix in
// coordinate-list form.
type Coordinate struct {
	Item   int
	User   int
	Weight float64
}

// InteractionMatrix is a sparse items × users matrix of summed weights.
// Item vectors (rows) and user vectors (columns) are both kept so either
// axis can be scanned without transposing. All vectors are sorted by index.
type InteractionMatrix struct {
	items  *Index
	users  *Index
	byItem [][]Entry
	byUser [][]Entry
	nnz    int
	max    float64
	sum    uint64
}

// BuildInteractionMatrix converts raw records into an InteractionMatrix.
// Weights of repeated (user, item) pairs are summed; a sum that overflows
// float64 is a ValidationError. Index assignment is
// lexical, so any permutation of the same records yields the same matrix.
func BuildInteractionMatrix(records []InteractionRecord) (*InteractionMatrix, error) {
	for i := range records {
		if err := validateRecord(i, &records[i]); err != nil {
			return nil, err
		}
	}

	sorted := make([]InteractionRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(a, b int) bool {
		ra, rb := &sorted[a], &sorted[b]
		if ra.UserID != rb.UserID {
			return ra.UserID < rb.UserID
		}
		if ra.ItemID != rb.ItemID {
			return ra.ItemID < rb.ItemID
		}
		return ra.Weight < rb.Weight
	})

	userIDs := make([]string, 0)
	itemSet := make(map[string]struct{})
	for i := range sorted {
		if len(userIDs) == 0 || userIDs[len(userIDs)-1] != sorted[i].UserID {
			userIDs = append(userIDs, sorted[i].UserID)
		}
		itemSet[sorted[i].ItemID] = struct{}{}
	}
	itemIDs := make([]string, 0, len(itemSet))
	for id := range itemSet {
		itemIDs = append(itemIDs, id)
	}
	sort.Strings(itemIDs)

	items := newIndex(itemIDs)
	users := newIndex(userIDs)

	// Records are sorted by (user, item), so each run of equal pairs is
	// contiguous and summed in ascending weight order.
	coords := make([]Coordinate, 0, len(sorted))
	for i := 0; i < len(sorted); {
		j := i
		w := 0.0
		for j < len(sorted) && sorted[j].UserID == sorted[i].UserID && sorted[j].ItemID == sorted[i].ItemID {
			w += sorted[j].Weight
			j++
		}
		if math.IsInf(w, 0) {
			return nil, &ValidationError{
				Field:  "weight",
				Index:  -1,
				Reason: fmt.Sprintf("sum for user %q item %q overflows", sorted[i].UserID, sorted[i].ItemID),
			}
		}
		if w != 0 {
			u, _ := users.Lookup(sorted[i].UserID)
			it, _ := items.Lookup(sorted[i].ItemID)
			coords = append(coords, Coordinate{Item: it, User: u, Weight: w})
		}
		i = j
	}

	return assemble(items, users, coords), nil
}

// NewInteractionMatrixFromCoordinates rebuilds a matrix from its
// coordinate-list form. Identifier slices must be strictly increasing and
// each (item, user) pair may appear at most once.
func NewInteractionMatrixFromCoordinates(itemIDs, userIDs []string, coords []Coordinate) (*InteractionMatrix, error) {
	if err := validateSortedIDs("item_id", itemIDs); err != nil {
		return nil, err
	}
	if err := validateSortedIDs("user_id", userIDs); err != nil {
		return nil, err
	}

	seen := make(map[[2]int]struct{}, len(coords))
	kept := make([]Coordinate, 0, len(coords))
	for i, c := range coords {
		if c.Item < 0 || c.Item >= len(itemIDs) || c.User < 0 || c.User >= len(userIDs) {
			return nil, &DimensionError{
				Op:   "coordinates",
				Want: fmt.Sprintf("item < %d and user < %d", len(itemIDs), len(userIDs)),
				Got:  fmt.Sprintf("(%d, %d) at %d", c.Item, c.User, i),
			}
		}
		if c.Weight < 0 || math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
			return nil, &ValidationError{Field: "weight", Index: i, Element: "coordinate", Reason: fmt.Sprintf("must be finite and non-negative, got %v", c.Weight)}
		}
		key := [2]int{c.Item, c.User}
		if _, dup := seen[key]; dup {
			return nil, &ValidationError{Field: "pair", Index: i, Element: "coordinate", Reason: "repeats an earlier (item, user) coordinate"}
		}
		seen[key] = struct{}{}
		if c.Weight != 0 {
			kept = append(kept, c)
		}
	}

	items := newIndex(append([]string(nil), itemIDs...))
	users := newIndex(append([]string(nil), userIDs...))
	return assemble(items, users, kept), nil
}

func assemble(items, users *Index, coords []Coordinate) *InteractionMatrix {
	sort.Slice(coords, func(a, b int) bool {
		if coords[a].Item != coords[b].Item {
			return coords[a].Item < coords[b].Item
		}
		return coords[a].User < coords[b].User
	})

	m := &InteractionMatrix{
		items:  items,
		users:  users,
		byItem: make([][]Entry, items.Len()),
		byUser: make([][]Entry, users.Len()),
		nnz:    len(coords),
	}
	// Walking coordinates item-major appends user vectors in ascending item
	// order and item vectors in ascending user order.
	for _, c := range coords {
		m.byItem[c.Item] = append(m.byItem[c.Item], Entry{Index: c.User, Weight: c.Weight})
		m.byUser[c.User] = append(m.byUser[c.User], Entry{Index: c.Item, Weight: c.Weight})
		m.max = math.Max(m.max, c.Weight)
	}
	m.sum = fingerprint(items, users, coords)
	return m
}

func validateRecord(i int, r *InteractionRecord) error {
	if strings.TrimSpace(r.UserID) == "" {
		return &ValidationError{Field: "user_id", Index: i, Reason: "must not be empty"}
	}
	if strings.TrimSpace(r.ItemID) == "" {
		return &ValidationError{Field: "item_id", Index: i, Reason: "must not be empty"}
	}
	if math.IsNaN(r.Weight) || math.IsInf(r.Weight, 0) {
		return &ValidationError{Field: "weight", Index: i, Reason: fmt.Sprintf("must be finite, got %v", r.Weight)}
	}
	if r.Weight < 0 {
		return &ValidationError{Field: "weight", Index: i, Reason: fmt.Sprintf("must be non-negative, got %v", r.Weight)}
	}
	return nil
}

func validateSortedIDs(field string, ids []string) error {
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return &ValidationError{Field: field, Index: i, Element: "id", Reason: "must not be empty"}
		}
		if i > 0 && ids[i-1] >= id {
			return &ValidationError{Field: field, Index: i, Element: "id", Reason: "identifiers must be strictly increasing"}
		}
	}
	return nil
}

// fingerprint hashes identifiers and cells so matrices from different
// builds can be told apart.
func fingerprint(items, users *Index, coords []Coordinate) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
	writeInt(items.Len())
	for _, id := range items.ids {
		_, _ = h.Write([]byte(id))
		_, _ = h.Write([]byte{0})
	}
	writeInt(users.Len())
	for _, id := range users.ids {
		_, _ = h.Write([]byte(id))
		_, _ = h.Write([]byte{0})
	}
	for _, c := range coords {
		writeInt(c.Item)
		writeInt(c.User)
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(c.Weight))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// Items returns the item index.
func (m *InteractionMatrix) Items() *Index { return m.items }

// Users returns the user index.
func (m *InteractionMatrix) Users() *Index { return m.users }

// NumItems returns the number of items.
func (m *InteractionMatrix) NumItems() int { return m.items.Len() }

// NumUsers returns the number of users.
func (m *InteractionMatrix) NumUsers() int { return m.users.Len() }

// NNZ returns the number of nonzero cells.
func (m *InteractionMatrix) NNZ() int { return m.nnz }

// MaxWeight returns the largest cell weight, zero for an empty matrix.
func (m *InteractionMatrix) MaxWeight() float64 { return m.max }

// Fingerprint identifies the exact contents of the matrix.
func (m *InteractionMatrix) Fingerprint() uint64 { return m.sum }

// ItemVector returns the nonzero user weights of item i, sorted by user
// index. The slice is shared and must not be modified.
func (m *InteractionMatrix) ItemVector(i int) []Entry { return m.byItem[i] }

// UserVector returns the nonzero item weights of user u, sorted by item
// index. The slice is shared and must not be modified.
func (m *InteractionMatrix) UserVector(u int) []Entry { return m.byUser[u] }

// Weight returns the weight at (item, user), zero when absent.
func (m *InteractionMatrix) Weight(item, user int) float64 {
	vec := m.byUser[user]
	k := sort.Search(len(vec), func(i int) bool { return vec[i].Index >= item })
	if k < len(vec) && vec[k].Index == item {
		return vec[k].Weight
	}
	return 0
}

// Coordinates returns all nonzero cells in item-major order.
func (m *InteractionMatrix) Coordinates() []Coordinate {
	out := make([]Coordinate, 0, m.nnz)
	for i, vec := range m.byItem {
		for _, e := range vec {
			out = append(out, Coordinate{Item: i, User: e.Index, Weight: e.Weight})
		}
	}
	return out
}

// vectors returns the vectors compared along axis, together with the
// vectors of the opposite axis used as an inverted index.
func (m *InteractionMatrix) vectors(axis Axis) (rows, inverted [][]Entry) {
	if axis == AxisUser {
		return m.byUser, m.byItem
	}
	return m.byItem, m.byUser
}

// axisIndex returns the identifier index for axis.
func (m *InteractionMatrix) axisIndex(axis Axis) *Index {
	if axis == AxisUser {
		return m.users
	}
	return m.items
}
