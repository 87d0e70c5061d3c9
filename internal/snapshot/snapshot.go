// Package snapshot captures and restores pre-images of store collections.
//
// A Snapshot is a deep copy taken before an operation mutates a collection.
// It holds the full collection, the subset the operation selected, and the
// full content of any dependent collections a cascade may touch. Restoring a
// snapshot puts exactly that content back, whatever happened in between.
package snapshot

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
)

// ErrInvalidSnapshot is returned by Restore when a snapshot cannot be applied.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is an immutable pre-image of one collection and its dependents.
type Snapshot struct {
	Timestamp   time.Time                       `json:"timestamp"`
	EntityType  entity.Type                     `json:"entityType"`
	Entities    []record.Object                 `json:"entities"`
	AllEntities []record.Object                 `json:"allEntities"`
	Dependents  map[entity.Type][]record.Object `json:"dependents,omitempty"`
	Digest      string                          `json:"digest"`
}

// Capture deep-copies store[t] and the records whose id is in ids, plus the
// full content of each dependent collection. An absent collection is
// captured as empty. Entities follow collection order, not ids order.
func Capture(store *entity.Store, t entity.Type, ids []string, dependents []entity.Type, ts time.Time) *Snapshot {
	selected := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}

	all := store.Collection(t)
	snap := &Snapshot{
		Timestamp:   ts.UTC(),
		EntityType:  t,
		Entities:    []record.Object{},
		AllEntities: record.CloneAll(all),
	}
	for _, obj := range snap.AllEntities {
		if _, ok := selected[obj.ID()]; ok {
			// AllEntities is already a private copy, but Entities must not
			// alias it either.
			snap.Entities = append(snap.Entities, obj.Clone())
		}
	}

	if len(dependents) > 0 {
		snap.Dependents = make(map[entity.Type][]record.Object, len(dependents))
		for _, dep := range dependents {
			if dep == t {
				continue
			}
			snap.Dependents[dep] = record.CloneAll(store.Collection(dep))
		}
	}

	// Capture has no failure mode; a digest error (unencodable float) leaves
	// the digest empty and Restore skips the integrity check.
	snap.Digest, _ = snap.computeDigest()
	return snap
}

// IDs returns the ids of the selected entities in collection order.
func (s *Snapshot) IDs() []string {
	out := make([]string, len(s.Entities))
	for i, obj := range s.Entities {
		out[i] = obj.ID()
	}
	return out
}

// Types returns the collections the snapshot restores: the primary type
// followed by dependents in canonical order.
func (s *Snapshot) Types() []entity.Type {
	out := []entity.Type{s.EntityType}
	for _, t := range entity.All() {
		if _, ok := s.Dependents[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Restore returns a new store identical to store except that the snapshot's
// collections are replaced by copies of their captured content and
// lastUpdated is ts.
func Restore(store *entity.Store, snap *Snapshot, ts time.Time) (*entity.Store, error) {
	if err := snap.Verify(); err != nil {
		return nil, err
	}

	changes := make(map[entity.Type][]record.Object, 1+len(snap.Dependents))
	changes[snap.EntityType] = record.CloneAll(snap.AllEntities)
	for t, objs := range snap.Dependents {
		changes[t] = record.CloneAll(objs)
	}
	return store.WithChanges(changes, ts), nil
}

// Verify checks that the snapshot names a known collection and that its
// content still matches the digest taken at capture time.
func (s *Snapshot) Verify() error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if s.EntityType == "" {
		return fmt.Errorf("%w: missing entity type", ErrInvalidSnapshot)
	}
	if !s.EntityType.Valid() {
		return fmt.Errorf("%w: unknown entity type %q", ErrInvalidSnapshot, s.EntityType)
	}
	for t := range s.Dependents {
		if !t.Valid() {
			return fmt.Errorf("%w: unknown dependent type %q", ErrInvalidSnapshot, t)
		}
	}
	if s.Digest == "" {
		return nil
	}
	digest, err := s.computeDigest()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if digest != s.Digest {
		return fmt.Errorf("%w: content does not match digest", ErrInvalidSnapshot)
	}
	return nil
}

func (s *Snapshot) computeDigest() (string, error) {
	deps := make(record.Object, len(s.Dependents))
	for t, objs := range s.Dependents {
		deps[string(t)] = toArray(objs)
	}

	return record.Digest(record.DomainSnapshot, record.Object{
		"entityType": record.String(s.EntityType),
		"entities":   toArray(s.Entities),
		"all":        toArray(s.AllEntities),
		"dependents": deps,
	})
}

func toArray(objs []record.Object) record.Array {
	arr := make(record.Array, len(objs))
	for i, obj := range objs {
		arr[i] = obj
	}
	return arr
}
