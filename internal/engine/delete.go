package engine

import (
	"fmt"
	"time"

	"github.com/roach88/rollcall/internal/cascade"
	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
	"github.com/roach88/rollcall/internal/snapshot"
)

// Delete removes the selected records from t.
//
// The validator sees the store as it was before the operation. With
// opts.Cascade, dependent records are removed as well and the snapshot
// covers the dependent collections, so Undo brings them back too.
func (e *Engine) Delete(store *entity.Store, t entity.Type, ids []string, opts DeleteOptions) (out *entity.Store, res Result) {
	defer e.recoverInto(OpDelete, t, ids, store, &out, &res)

	ids, err := e.begin(OpDelete, t, ids, opts.Transactional)
	if err != nil {
		return store, e.structural(OpDelete, t, len(ids), err)
	}
	ts := e.clock.Now()
	tl := newTally(opts.Transactional)
	if len(ids) == 0 {
		return store, e.commit(OpDelete, t, 0, tl, nil, Metadata{}, ts, false)
	}

	var deps []entity.Type
	if opts.Cascade {
		deps = cascade.Dependents(t)
	}
	snap := snapshot.Capture(store, t, ids, deps, ts)
	wanted := indexIDs(ids)
	found := make(map[string]struct{}, len(ids))
	removed := make(map[string]struct{}, len(ids))

	src := store.Collection(t)
	for _, obj := range src {
		id := obj.ID()
		if _, ok := wanted[id]; !ok {
			continue
		}
		found[id] = struct{}{}

		if opts.Validate != nil {
			if err := opts.Validate(id, store); err != nil {
				if tl.fail(id, rejected(id, err), ErrCodeValidationFailed) {
					return store, e.abort(OpDelete, t, len(ids), tl, snap)
				}
				continue
			}
		}
		removed[id] = struct{}{}
		tl.succeed(id)
	}
	if reportMissing(ids, found, tl) {
		return store, e.abort(OpDelete, t, len(ids), tl, snap)
	}
	if len(tl.affected) == 0 {
		return store, e.commit(OpDelete, t, len(ids), tl, snap, Metadata{}, ts, false)
	}

	kept := make([]record.Object, 0, len(src)-len(removed))
	for _, obj := range src {
		if _, ok := removed[obj.ID()]; !ok {
			kept = append(kept, obj)
		}
	}

	changes := map[entity.Type][]record.Object{t: kept}
	var meta Metadata
	if opts.Cascade {
		resolved, report, err := resolveCascade(store.With(t, kept, ts), t, tl.affected, ts)
		if err != nil {
			return store, e.structural(OpDelete, t, len(ids), err)
		}
		for _, dep := range deps {
			changes[dep] = resolved.Collection(dep)
		}
		if report.Total() > 0 {
			meta.Cascade = make(map[entity.Type]int, len(report.Removed))
			for dep, removedIDs := range report.Removed {
				meta.Cascade[dep] = len(removedIDs)
			}
			e.logger.Debug("cascade removed dependents",
				"entity", t,
				"removed", report.Total(),
			)
		}
	}
	return store.WithChanges(changes, ts), e.commit(OpDelete, t, len(ids), tl, snap, meta, ts, true)
}

// resolveCascade runs the cascade resolver and turns a panic into a
// CASCADE_FAILED error.
func resolveCascade(s *entity.Store, t entity.Type, deleted []string, ts time.Time) (next *entity.Store, report cascade.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &OpError{
				Code:    ErrCodeCascadeFailed,
				Message: fmt.Sprintf("cascade from %s failed: %v", t, r),
			}
		}
	}()
	next, report = cascade.Resolve(s, t, deleted, ts)
	return next, report, nil
}
