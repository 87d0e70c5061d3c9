package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/rollcall/internal/record"
)

// TimestampLayout is the ISO-8601 layout used for every timestamp the store
// and engine write: UTC, millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t with TimestampLayout in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Document keys that are not collections.
const (
	keyVersion     = "version"
	keyLastUpdated = "lastUpdated"
)

var (
	// ErrMissingID is returned when a record has no string id.
	ErrMissingID = errors.New("record has no id")
	// ErrDuplicateID is returned when two records in one collection share an id.
	ErrDuplicateID = errors.New("duplicate record id")
)

// Store is the in-memory document: one ordered collection per Type plus a
// version counter and the time of the last change.
//
// A Store is a persistent value. Nothing in this module mutates a Store or
// the records it holds after construction; every change produces a new Store
// that shares untouched collections with its predecessor. Callers must treat
// slices returned by Collection as read-only.
type Store struct {
	collections map[Type][]record.Object
	version     int64
	lastUpdated time.Time
}

// NewStore builds a Store from the given collections, checking that every
// record has a unique id within its collection. The collections map and its
// slices are copied; the records themselves are shared.
func NewStore(collections map[Type][]record.Object, lastUpdated time.Time) (*Store, error) {
	s := &Store{
		collections: make(map[Type][]record.Object, len(collections)),
		lastUpdated: lastUpdated.UTC(),
	}
	for t, objs := range collections {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
		}
		if err := checkIDs(t, objs); err != nil {
			return nil, err
		}
		cp := make([]record.Object, len(objs))
		copy(cp, objs)
		s.collections[t] = cp
	}
	return s, nil
}

// Empty returns a store with no collections.
func Empty() *Store {
	return &Store{collections: map[Type][]record.Object{}}
}

func checkIDs(t Type, objs []record.Object) error {
	seen := make(map[string]struct{}, len(objs))
	for i, obj := range objs {
		id := obj.ID()
		if id == "" {
			return fmt.Errorf("%s[%d]: %w", t, i, ErrMissingID)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%s[%d]: %w %q", t, i, ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Version returns the store's version counter. Each derived store is one
// higher than the store it was derived from.
func (s *Store) Version() int64 {
	return s.version
}

// LastUpdated returns the time of the last change.
func (s *Store) LastUpdated() time.Time {
	return s.lastUpdated
}

// Collection returns the records of t in order. An absent collection is
// empty. The returned slice is shared and must not be modified.
func (s *Store) Collection(t Type) []record.Object {
	return s.collections[t]
}

// Has reports whether the store carries a collection for t, even an empty one.
func (s *Store) Has(t Type) bool {
	_, ok := s.collections[t]
	return ok
}

// Len returns the number of records in t.
func (s *Store) Len(t Type) int {
	return len(s.collections[t])
}

// Types returns the types present in the store, in canonical order.
func (s *Store) Types() []Type {
	var out []Type
	for _, t := range allTypes {
		if _, ok := s.collections[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Find returns the record with the given id in t and its index.
func (s *Store) Find(t Type, id string) (record.Object, int, bool) {
	for i, obj := range s.collections[t] {
		if obj.ID() == id {
			return obj, i, true
		}
	}
	return nil, -1, false
}

// IDs returns the ids of t in collection order.
func (s *Store) IDs(t Type) []string {
	objs := s.collections[t]
	out := make([]string, len(objs))
	for i, obj := range objs {
		out[i] = obj.ID()
	}
	return out
}

// With returns a new store whose collection t is replaced by objs. Other
// collections are shared. The version is incremented and lastUpdated set to
// ts. objs is taken over by the new store; the caller must not modify it.
func (s *Store) With(t Type, objs []record.Object, ts time.Time) *Store {
	return s.WithChanges(map[Type][]record.Object{t: objs}, ts)
}

// WithChanges is With for several collections at once.
func (s *Store) WithChanges(changes map[Type][]record.Object, ts time.Time) *Store {
	next := &Store{
		collections: make(map[Type][]record.Object, len(s.collections)+len(changes)),
		version:     s.version + 1,
		lastUpdated: ts.UTC(),
	}
	for t, objs := range s.collections {
		next.collections[t] = objs
	}
	for t, objs := range changes {
		if objs == nil {
			objs = []record.Object{}
		}
		next.collections[t] = objs
	}
	return next
}

// MarshalJSON encodes the store as a flat document:
// {"goals":[...],"students":[...],"version":N,"lastUpdated":"..."}.
func (s *Store) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, t := range s.Types() {
		objs := s.collections[t]
		arr := make(record.Array, len(objs))
		for i, obj := range objs {
			arr[i] = obj
		}
		b, err := arr.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", t, err)
		}
		fmt.Fprintf(&buf, "%q:", t)
		buf.Write(b)
		buf.WriteByte(',')
	}
	fmt.Fprintf(&buf, "%q:%d,", keyVersion, s.version)
	lastUpdated := ""
	if !s.lastUpdated.IsZero() {
		lastUpdated = FormatTimestamp(s.lastUpdated)
	}
	fmt.Fprintf(&buf, "%q:%q}", keyLastUpdated, lastUpdated)
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the flat document produced by MarshalJSON. Unknown
// collection names are rejected.
func (s *Store) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	collections := make(map[Type][]record.Object)
	var version int64
	var lastUpdated time.Time

	for key, msg := range raw {
		switch key {
		case keyVersion:
			if err := json.Unmarshal(msg, &version); err != nil {
				return fmt.Errorf("version: %w", err)
			}
		case keyLastUpdated:
			var ts string
			if err := json.Unmarshal(msg, &ts); err != nil {
				return fmt.Errorf("lastUpdated: %w", err)
			}
			if ts == "" {
				continue
			}
			parsed, err := time.Parse(time.RFC3339Nano, ts)
			if err != nil {
				return fmt.Errorf("lastUpdated: %w", err)
			}
			lastUpdated = parsed
		default:
			t, err := Parse(key)
			if err != nil {
				return err
			}
			var objs []record.Object
			if err := json.Unmarshal(msg, &objs); err != nil {
				return fmt.Errorf("%s: %w", t, err)
			}
			if objs == nil {
				objs = []record.Object{}
			}
			collections[t] = objs
		}
	}

	decoded, err := NewStore(collections, lastUpdated)
	if err != nil {
		return err
	}
	decoded.version = version
	*s = *decoded
	return nil
}
