// Package plan runs scripted sequences of batch operations.
//
// # Plan Format
//
// Plans are YAML files:
//
//	name: term_cleanup
//	description: "Close finished goals and roll back a mistaken delete"
//	steps:
//	  - op: status
//	    entity: goals
//	    ids: [g1, g2]
//	    status: completed
//	    expect: { success: true, successCount: 2 }
//	  - op: delete
//	    entity: students
//	    ids: [s1]
//	    cascade: true
//	  - op: undo
//	    expect: { success: true }
//
// # Operations
//
//   - edit: merge patch into each selected record
//   - status: set status (and statusUpdatedAt)
//   - assign: apply assign {kind, field, value}
//   - duplicate: clone the selection; patch, when present, is applied to each clone
//   - delete: remove the selection, with cascade to dependents when asked
//   - export: write the selection as CSV rows to filename
//   - undo, redo: act on the session history
//
// A step selects records either by ids or with all: true. transactional and
// validate map onto engine options; validate uses the runner's CUE schema.
//
// # Expectations
//
// expect fields are optional and compared against the step's result.
// Mismatches are collected per step and never stop the plan; a step whose
// operation fails still hands its (unchanged) store to the next step.
package plan
