package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/history"
	"github.com/roach88/rollcall/internal/snapshot"
)

// Engine applies batch operations to entity stores and keeps the undo
// history for one session.
//
// Every operation takes the current *entity.Store and returns a new one with
// a Result; the input store is never modified. Operations never return an
// error or panic: failures, including panics raised by caller-supplied
// validators and transforms, are reported through the Result.
//
// Thread-safety model:
//   - The engine performs no locking. One goroutine at a time may call
//     operations; the caller owns the store reference between calls.
//   - Within one call records are processed in collection order, and
//     AffectedIDs/Errors preserve that order.
type Engine struct {
	history *history.History
	clock   Clock
	ids     IDGenerator
	logger  *slog.Logger
	metrics *Metrics
}

// EngineOption allows configuration of engine collaborators.
type EngineOption func(*Engine)

// WithHistory injects the undo history. Sessions that must not share a
// timeline use separate histories.
func WithHistory(h *history.History) EngineOption {
	return func(e *Engine) {
		e.history = h
	}
}

// WithHistoryCapacity replaces the history with an empty one of the given
// capacity.
func WithHistoryCapacity(capacity int) EngineOption {
	return func(e *Engine) {
		e.history = history.New(capacity)
	}
}

// WithClock sets the timestamp source.
func WithClock(c Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithIDGenerator sets the id source used by Duplicate.
func WithIDGenerator(g IDGenerator) EngineOption {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine. Defaults: a history of history.DefaultCapacity,
// the system clock, UUIDv7 ids, slog.Default() and no metrics.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		history: history.New(history.DefaultCapacity),
		clock:   NewSystemClock(),
		ids:     UUIDv7Generator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// History returns the engine's undo history.
func (e *Engine) History() *history.History {
	return e.history
}

// CanUndo reports whether Undo has an entry to revert.
func (e *Engine) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo always reports false; see Redo.
func (e *Engine) CanRedo() bool {
	return false
}

// ClearHistory drops every undoable entry.
func (e *Engine) ClearHistory() {
	e.history.Clear()
	e.metrics.setHistoryDepth(0)
}

// tally accumulates per-record outcomes for one batch.
type tally struct {
	transactional bool
	affected      []string
	errors        []ItemError
}

func newTally(transactional bool) *tally {
	return &tally{
		transactional: transactional,
		affected:      []string{},
		errors:        []ItemError{},
	}
}

func (t *tally) succeed(id string) {
	t.affected = append(t.affected, id)
}

// fail records a failure for id and reports whether the batch must abort.
func (t *tally) fail(id string, err error, fallback ErrorCode) bool {
	t.errors = append(t.errors, ItemError{
		ID:    id,
		Code:  CodeOf(err, fallback),
		Error: message(err),
	})
	return t.transactional
}

// begin validates the entity type, de-duplicates ids and logs the start of
// an operation. A non-nil error is structural.
func (e *Engine) begin(op OpType, t entity.Type, ids []string, transactional bool) ([]string, error) {
	ids = dedupe(ids)
	if !t.Valid() {
		return ids, &OpError{
			Code:    ErrCodeUnknownEntityType,
			Message: fmt.Sprintf("unknown entity type %q", t),
		}
	}
	e.logger.Debug("batch operation starting",
		"op", op,
		"entity", t,
		"items", len(ids),
		"transactional", transactional,
	)
	return ids, nil
}

// commit turns a finished tally into a Result and, when at least one record
// was mutated, pushes a history entry carrying snap.
func (e *Engine) commit(op OpType, t entity.Type, total int, tl *tally, snap *snapshot.Snapshot, meta Metadata, ts time.Time, undoable bool) Result {
	res := Result{
		Success:       len(tl.errors) == 0,
		TotalItems:    total,
		SuccessCount:  len(tl.affected),
		FailureCount:  len(tl.errors),
		Errors:        tl.errors,
		AffectedIDs:   tl.affected,
		Snapshot:      snap,
		OperationType: op,
		EntityType:    t,
		Metadata:      meta,
	}

	if undoable && res.SuccessCount > 0 && snap != nil {
		e.history.Push(history.Entry{
			Type:       string(op),
			EntityType: t,
			Snapshot:   snap,
			Summary: history.Summary{
				TotalItems:   res.TotalItems,
				SuccessCount: res.SuccessCount,
				FailureCount: res.FailureCount,
				AffectedIDs:  res.AffectedIDs,
				At:           ts,
			},
		})
		e.metrics.setHistoryDepth(e.history.Len())
	}

	level := slog.LevelInfo
	if !res.Success {
		level = slog.LevelWarn
	}
	e.logger.Log(context.Background(), level, "batch operation finished",
		"op", op,
		"entity", t,
		"total", res.TotalItems,
		"succeeded", res.SuccessCount,
		"failed", res.FailureCount,
	)
	e.metrics.observe(res)
	return res
}

// abort builds the Result for a discarded transactional batch. The first
// failure is the only one reported.
func (e *Engine) abort(op OpType, t entity.Type, total int, tl *tally, snap *snapshot.Snapshot) Result {
	first := tl.errors[0]
	res := Result{
		Success:       false,
		TotalItems:    total,
		SuccessCount:  0,
		FailureCount:  1,
		Errors:        []ItemError{first},
		AffectedIDs:   []string{},
		Snapshot:      snap,
		OperationType: op,
		EntityType:    t,
		Code:          ErrCodeTransactionAborted,
		Message:       fmt.Sprintf("transaction aborted: %s failed: %s", first.ID, first.Error),
		Metadata:      Metadata{Aborted: true},
	}
	e.logger.Warn("batch operation aborted",
		"op", op,
		"entity", t,
		"total", total,
		"id", first.ID,
		"error", first.Error,
	)
	e.metrics.observe(res)
	return res
}

// structural builds the Result for a failure of the operation as a whole.
// Every selected item counts as failed.
func (e *Engine) structural(op OpType, t entity.Type, total int, err error) Result {
	code := CodeOf(err, ErrCodeInternal)
	msg := message(err)
	res := Result{
		Success:       false,
		TotalItems:    total,
		SuccessCount:  0,
		FailureCount:  total,
		Errors:        []ItemError{{Code: code, Error: msg}},
		AffectedIDs:   []string{},
		OperationType: op,
		EntityType:    t,
		Code:          code,
		Message:       msg,
	}
	e.logger.Error("batch operation failed",
		"op", op,
		"entity", t,
		"code", code,
		"error", msg,
	)
	e.metrics.observe(res)
	return res
}

// recoverInto is deferred by every public operation. A panic (typically
// from a caller-supplied validator or transform) becomes a structural
// failure and the input store is handed back unchanged.
func (e *Engine) recoverInto(op OpType, t entity.Type, ids []string, in *entity.Store, out **entity.Store, res *Result) {
	r := recover()
	if r == nil {
		return
	}
	*out = in
	*res = e.structural(op, t, len(dedupe(ids)), &OpError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf("unexpected failure: %v", r),
	})
}

// dedupe removes repeated ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func indexIDs(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
