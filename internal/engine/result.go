package engine

import (
	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
	"github.com/roach88/rollcall/internal/snapshot"
)

// OpType names an operation kind. It is recorded on results and history
// entries.
type OpType string

const (
	OpEdit         OpType = "edit"
	OpDelete       OpType = "delete"
	OpExport       OpType = "export"
	OpAssign       OpType = "assign"
	OpStatusChange OpType = "statusChange"
	OpDuplicate    OpType = "duplicate"
	OpUndo         OpType = "undo"
	OpRedo         OpType = "redo"
)

// Validator inspects a candidate post-mutation record. A non-nil error
// rejects the record; its message is reported for the record's id. Return an
// *OpError to choose the code, otherwise VALIDATION_FAILED is used.
type Validator func(record.Object) error

// Options are recognized by every executor that rewrites records.
type Options struct {
	// Transactional discards the whole batch on the first failure.
	Transactional bool

	// Validate, when set, is applied to every candidate record.
	Validate Validator
}

// DeleteValidator decides whether id may be deleted from the store as it was
// before the operation started.
type DeleteValidator func(id string, store *entity.Store) error

// DeleteOptions configure Delete.
type DeleteOptions struct {
	Transactional bool
	Cascade       bool
	Validate      DeleteValidator
}

// DuplicateOptions configure Duplicate.
type DuplicateOptions struct {
	Options

	// Transform may modify each clone in place before validation. It cannot
	// change the clone's id or provenance; those are re-applied afterwards.
	Transform func(clone record.Object)
}

// ItemError is a per-record failure.
type ItemError struct {
	ID    string    `json:"id"`
	Code  ErrorCode `json:"code"`
	Error string    `json:"error"`
}

// Metadata carries operation-specific extras.
type Metadata struct {
	// NewIDs lists ids minted by Duplicate, in input order.
	NewIDs []string `json:"newIds,omitempty"`

	// Cascade counts records removed from dependent collections.
	Cascade map[entity.Type]int `json:"cascade,omitempty"`

	// Filename and Rows describe an export.
	Filename string `json:"filename,omitempty"`
	Rows     int    `json:"rows,omitempty"`

	// UndoneOperation names the operation an undo reverted.
	UndoneOperation OpType `json:"undoneOperation,omitempty"`

	// Aborted is set when a transactional batch was discarded.
	Aborted bool `json:"aborted,omitempty"`
}

// Result reports the outcome of one operation.
//
// Outside a transactional abort, SuccessCount+FailureCount == TotalItems.
// On abort SuccessCount is 0, FailureCount is 1 and Errors holds the first
// failure; Message carries the aggregate reason. Success is true only when
// nothing failed.
//
// Code is set when the operation failed as a whole (abort, structural
// failure, nothing to undo, redo) and is empty otherwise.
type Result struct {
	Success       bool               `json:"success"`
	TotalItems    int                `json:"totalItems"`
	SuccessCount  int                `json:"successCount"`
	FailureCount  int                `json:"failureCount"`
	Errors        []ItemError        `json:"errors"`
	AffectedIDs   []string           `json:"affectedIds"`
	Snapshot      *snapshot.Snapshot `json:"-"`
	OperationType OpType             `json:"operationType"`
	EntityType    entity.Type        `json:"entityType,omitempty"`
	Code          ErrorCode          `json:"code,omitempty"`
	Message       string             `json:"message,omitempty"`
	Metadata      Metadata           `json:"metadata"`
}

// Partial reports whether some but not all items succeeded.
func (r Result) Partial() bool {
	return r.SuccessCount > 0 && r.FailureCount > 0
}

// ErrorFor returns the failure recorded for id, if any.
func (r Result) ErrorFor(id string) (ItemError, bool) {
	for _, e := range r.Errors {
		if e.ID == id {
			return e, true
		}
	}
	return ItemError{}, false
}
