package engine

import (
	"fmt"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
	"github.com/roach88/rollcall/internal/snapshot"
)

// Fields written on every duplicate.
const (
	FieldCreatedAt      = "createdAt"
	FieldDuplicatedFrom = "duplicatedFrom"
	FieldName           = "name"
	FieldDescription    = "description"
)

// CopySuffix is appended to the name (or description) of a duplicate.
const CopySuffix = " (Copy)"

// maxIDAttempts bounds how many times Duplicate re-draws an id that is
// already taken.
const maxIDAttempts = 8

// Duplicate appends a deep copy of every selected record to t.
//
// Ids are processed in input order. Each copy gets a fresh id, createdAt and
// duplicatedFrom, then goes through opts.Transform, the "(Copy)" suffix and
// opts.Validate. Result.AffectedIDs lists the source ids; Metadata.NewIDs
// lists the minted ids in the same order.
func (e *Engine) Duplicate(store *entity.Store, t entity.Type, ids []string, opts DuplicateOptions) (out *entity.Store, res Result) {
	defer e.recoverInto(OpDuplicate, t, ids, store, &out, &res)

	ids, err := e.begin(OpDuplicate, t, ids, opts.Transactional)
	if err != nil {
		return store, e.structural(OpDuplicate, t, len(ids), err)
	}
	ts := e.clock.Now()
	tl := newTally(opts.Transactional)
	if len(ids) == 0 {
		return store, e.commit(OpDuplicate, t, 0, tl, nil, Metadata{}, ts, false)
	}

	snap := snapshot.Capture(store, t, ids, nil, ts)
	taken := indexIDs(store.IDs(t))
	created := record.String(entity.FormatTimestamp(ts))

	var clones []record.Object
	newIDs := []string{}
	for _, id := range ids {
		orig, _, ok := store.Find(t, id)
		if !ok {
			if tl.fail(id, NewNotFoundError(id), ErrCodeEntityNotFound) {
				return store, e.abort(OpDuplicate, t, len(ids), tl, snap)
			}
			continue
		}

		newID, err := e.freshID(taken)
		if err != nil {
			return store, e.structural(OpDuplicate, t, len(ids), err)
		}
		clone := orig.Clone()
		clone[record.FieldID] = record.String(newID)
		clone[FieldCreatedAt] = created
		clone[FieldDuplicatedFrom] = record.String(id)
		if opts.Transform != nil {
			opts.Transform(clone)
			clone[record.FieldID] = record.String(newID)
			clone[FieldDuplicatedFrom] = record.String(id)
		}
		addCopySuffix(clone)

		if err := runValidator(opts.Validate, id, clone); err != nil {
			if tl.fail(id, err, ErrCodeValidationFailed) {
				return store, e.abort(OpDuplicate, t, len(ids), tl, snap)
			}
			continue
		}
		taken[newID] = struct{}{}
		clones = append(clones, clone)
		newIDs = append(newIDs, newID)
		tl.succeed(id)
	}

	meta := Metadata{NewIDs: newIDs}
	if len(clones) == 0 {
		return store, e.commit(OpDuplicate, t, len(ids), tl, snap, meta, ts, false)
	}

	src := store.Collection(t)
	next := make([]record.Object, 0, len(src)+len(clones))
	next = append(next, src...)
	next = append(next, clones...)
	return store.With(t, next, ts), e.commit(OpDuplicate, t, len(ids), tl, snap, meta, ts, true)
}

// freshID draws ids until one is not in taken.
func (e *Engine) freshID(taken map[string]struct{}) (string, error) {
	for range maxIDAttempts {
		id := e.ids.Generate()
		if id == "" {
			continue
		}
		if _, dup := taken[id]; !dup {
			return id, nil
		}
		e.logger.Debug("generated id already taken, retrying", "id", id)
	}
	return "", &OpError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf("no unique id after %d attempts", maxIDAttempts),
	}
}

// addCopySuffix marks the copy's name, or its description when there is no
// string name. A record with neither is left as is.
func addCopySuffix(obj record.Object) {
	for _, field := range []string{FieldName, FieldDescription} {
		if s, ok := obj.GetString(field); ok {
			obj[field] = record.String(s + CopySuffix)
			return
		}
	}
}
