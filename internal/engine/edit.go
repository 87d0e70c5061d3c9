package engine

import (
	"errors"
	"time"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
	"github.com/roach88/rollcall/internal/snapshot"
)

// Field names written by StatusChange.
const (
	FieldStatus          = "status"
	FieldStatusUpdatedAt = "statusUpdatedAt"
)

// rewrite computes the candidate replacement for one selected record.
// A returned error is a per-record failure; without an *OpError code it is
// reported as VALIDATION_FAILED.
type rewrite func(obj record.Object, ts time.Time) (record.Object, error)

// Edit merges patch onto every selected record. The patch cannot change a
// record's id.
func (e *Engine) Edit(store *entity.Store, t entity.Type, ids []string, patch record.Object, opts Options) (out *entity.Store, res Result) {
	defer e.recoverInto(OpEdit, t, ids, store, &out, &res)

	return e.mutate(OpEdit, store, t, ids, opts, func(obj record.Object, _ time.Time) (record.Object, error) {
		candidate := record.Merge(obj, patch)
		candidate[record.FieldID] = obj[record.FieldID]
		return candidate, nil
	})
}

// StatusChange sets status and statusUpdatedAt on every selected record.
func (e *Engine) StatusChange(store *entity.Store, t entity.Type, ids []string, status string, opts Options) (out *entity.Store, res Result) {
	defer e.recoverInto(OpStatusChange, t, ids, store, &out, &res)

	return e.mutate(OpStatusChange, store, t, ids, opts, func(obj record.Object, ts time.Time) (record.Object, error) {
		return record.Merge(obj, record.Object{
			FieldStatus:          record.String(status),
			FieldStatusUpdatedAt: record.String(entity.FormatTimestamp(ts)),
		}), nil
	})
}

// mutate runs fn over the selected records of t in collection order and
// builds the next store. It is shared by every executor that rewrites
// records in place (edit, assign, status change).
func (e *Engine) mutate(op OpType, store *entity.Store, t entity.Type, ids []string, opts Options, fn rewrite) (*entity.Store, Result) {
	ids, err := e.begin(op, t, ids, opts.Transactional)
	if err != nil {
		return store, e.structural(op, t, len(ids), err)
	}
	ts := e.clock.Now()
	tl := newTally(opts.Transactional)
	if len(ids) == 0 {
		return store, e.commit(op, t, 0, tl, nil, Metadata{}, ts, false)
	}

	snap := snapshot.Capture(store, t, ids, nil, ts)
	wanted := indexIDs(ids)
	found := make(map[string]struct{}, len(ids))

	src := store.Collection(t)
	next := make([]record.Object, len(src))
	copy(next, src)
	for i, obj := range src {
		id := obj.ID()
		if _, ok := wanted[id]; !ok {
			continue
		}
		found[id] = struct{}{}

		candidate, err := fn(obj, ts)
		if err == nil {
			err = runValidator(opts.Validate, id, candidate)
		}
		if err != nil {
			if tl.fail(id, err, ErrCodeValidationFailed) {
				return store, e.abort(op, t, len(ids), tl, snap)
			}
			continue
		}
		next[i] = candidate
		tl.succeed(id)
	}
	if reportMissing(ids, found, tl) {
		return store, e.abort(op, t, len(ids), tl, snap)
	}

	if len(tl.affected) == 0 {
		return store, e.commit(op, t, len(ids), tl, snap, Metadata{}, ts, false)
	}
	return store.With(t, next, ts), e.commit(op, t, len(ids), tl, snap, Metadata{}, ts, true)
}

// runValidator applies v to candidate. A nil validator accepts everything.
func runValidator(v Validator, id string, candidate record.Object) error {
	if v == nil {
		return nil
	}
	if err := v(candidate); err != nil {
		return rejected(id, err)
	}
	return nil
}

// rejected keeps a validator's own *OpError and wraps anything else as
// VALIDATION_FAILED.
func rejected(id string, err error) error {
	var oe *OpError
	if errors.As(err, &oe) {
		return err
	}
	return NewValidationError(id, err)
}

// reportMissing records an ENTITY_NOT_FOUND failure for every id not in
// found, in selection order, and reports whether the batch must abort.
func reportMissing(ids []string, found map[string]struct{}, tl *tally) bool {
	for _, id := range ids {
		if _, ok := found[id]; ok {
			continue
		}
		if tl.fail(id, NewNotFoundError(id), ErrCodeEntityNotFound) {
			return true
		}
	}
	return false
}
