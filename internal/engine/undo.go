package engine

import (
	"fmt"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/snapshot"
)

// Undo reverts the most recent history entry by restoring its snapshot.
//
// An empty history is reported as NO_OPERATION_TO_UNDO. If the snapshot
// cannot be restored, the entry is put back and the input store is returned
// with an INVALID_SNAPSHOT failure.
func (e *Engine) Undo(store *entity.Store) (out *entity.Store, res Result) {
	defer e.recoverInto(OpUndo, "", nil, store, &out, &res)

	entry, ok := e.history.Undo()
	if !ok {
		return store, e.refuse(OpUndo, ErrCodeNoOperationToUndo, "no operation to undo")
	}
	e.metrics.setHistoryDepth(e.history.Len())

	affected := entry.Summary.AffectedIDs
	ts := e.clock.Now()
	next, err := snapshot.Restore(store, entry.Snapshot, ts)
	if err != nil {
		e.history.Reinstate()
		e.metrics.setHistoryDepth(e.history.Len())
		return store, e.structural(OpUndo, entry.EntityType, len(affected), &OpError{
			Code:    ErrCodeInvalidSnapshot,
			Message: fmt.Sprintf("undo %s: %v", entry.Type, err),
			Err:     err,
		})
	}

	tl := newTally(false)
	for _, id := range affected {
		tl.succeed(id)
	}
	res = e.commit(OpUndo, entry.EntityType, len(affected), tl, entry.Snapshot, Metadata{
		UndoneOperation: OpType(entry.Type),
	}, ts, false)
	res.Message = fmt.Sprintf("undid %s of %d %s", entry.Type, len(affected), entry.EntityType)
	return next, res
}

// Redo is not supported: history entries hold only the pre-image of an
// operation, not the operation itself, so there is nothing to re-apply. It
// always reports REDO_UNSUPPORTED and returns store unchanged.
func (e *Engine) Redo(store *entity.Store) (*entity.Store, Result) {
	return store, e.refuse(OpRedo, ErrCodeRedoUnsupported, "redo is not supported")
}

// refuse reports an operation that had nothing to act on.
func (e *Engine) refuse(op OpType, code ErrorCode, msg string) Result {
	res := Result{
		Success:       false,
		Errors:        []ItemError{},
		AffectedIDs:   []string{},
		OperationType: op,
		Code:          code,
		Message:       msg,
	}
	e.logger.Info("batch operation refused", "op", op, "code", code)
	e.metrics.observe(res)
	return res
}
