package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes operation failures.
type ErrorCode string

const (
	// ErrCodeValidationFailed indicates a validator rejected a candidate record.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// ErrCodeEntityNotFound indicates a selected id is not in the collection.
	ErrCodeEntityNotFound ErrorCode = "ENTITY_NOT_FOUND"

	// ErrCodeTransactionAborted indicates a transactional batch was discarded.
	ErrCodeTransactionAborted ErrorCode = "TRANSACTION_ABORTED"

	// ErrCodeInvalidSnapshot indicates a history entry could not be restored.
	ErrCodeInvalidSnapshot ErrorCode = "INVALID_SNAPSHOT"

	// ErrCodeNoOperationToUndo indicates the history is empty.
	ErrCodeNoOperationToUndo ErrorCode = "NO_OPERATION_TO_UNDO"

	// ErrCodeRedoUnsupported indicates redo was requested. Forward actions are
	// not recorded, so there is nothing to re-apply.
	ErrCodeRedoUnsupported ErrorCode = "REDO_UNSUPPORTED"

	// ErrCodeUnknownEntityType indicates the entity type is not in the closed set.
	ErrCodeUnknownEntityType ErrorCode = "UNKNOWN_ENTITY_TYPE"

	// ErrCodeInvalidAssignment indicates a malformed assignment payload or a
	// record whose field cannot take the assignment.
	ErrCodeInvalidAssignment ErrorCode = "INVALID_ASSIGNMENT"

	// ErrCodeExportFailed indicates row construction or writing failed.
	ErrCodeExportFailed ErrorCode = "EXPORT_FAILED"

	// ErrCodeCascadeFailed indicates dependent-record removal failed.
	ErrCodeCascadeFailed ErrorCode = "CASCADE_FAILED"

	// ErrCodeInternal indicates an unexpected failure (including a panic in
	// caller-supplied code) caught at the operation boundary.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// OpError is the structured error carried inside results.
//
// Engine operations never return an OpError (or panic) to the caller; they
// fold it into Result.Errors or Result.Code. OpError exists so that
// validators and collaborators can choose a code, and so that failures can
// be inspected with errors.As before they are flattened.
type OpError struct {
	// Code identifies the error category.
	Code ErrorCode

	// ID is the record the error concerns, empty for whole-operation errors.
	ID string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (id=%s)", e.Code, msg, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *OpError) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first OpError in err's chain, or fallback.
func CodeOf(err error, fallback ErrorCode) ErrorCode {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code
	}
	return fallback
}

// IsCode reports whether err carries code. Uses errors.As so wrapped errors
// match.
func IsCode(err error, code ErrorCode) bool {
	var oe *OpError
	return errors.As(err, &oe) && oe.Code == code
}

// NewNotFoundError creates an OpError for a selected id that does not exist.
func NewNotFoundError(id string) *OpError {
	return &OpError{
		Code:    ErrCodeEntityNotFound,
		ID:      id,
		Message: "entity not found",
	}
}

// NewValidationError creates an OpError for a rejected record.
func NewValidationError(id string, cause error) *OpError {
	return &OpError{
		Code:    ErrCodeValidationFailed,
		ID:      id,
		Message: cause.Error(),
		Err:     cause,
	}
}

// message returns the description of err without its code prefix.
func message(err error) string {
	var oe *OpError
	if errors.As(err, &oe) {
		if oe.Message != "" {
			return oe.Message
		}
		if oe.Err != nil {
			return oe.Err.Error()
		}
	}
	return err.Error()
}
