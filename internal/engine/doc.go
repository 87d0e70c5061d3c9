// Package engine implements the rollcall batch-operations engine.
//
// The engine applies one mutation to many records of a collection at once
// and reports precisely which records succeeded. Every executor takes the
// current *entity.Store and returns a new store plus a Result.
//
// ARCHITECTURE:
//
// Executor Flow:
// 1. begin() de-duplicates ids and checks the entity type
// 2. snapshot.Capture() takes a deep pre-image of the collection
// 3. Records are processed in collection order (Duplicate: input order)
// 4. A new store is built; untouched collections are shared
// 5. commit() pushes a history entry when at least one record changed
//
// Transactional Mode:
// With Options.Transactional the first per-record failure discards the
// batch. The input store is returned, nothing is pushed to the history and
// the Result carries TRANSACTION_ABORTED with the failing record.
//
// Failure Boundary:
// No executor returns an error or lets a panic escape. Per-record failures
// go to Result.Errors; whole-operation failures (unknown entity type, bad
// assignment, cascade or export failure, panics in caller code) become a
// structural Result with the input store.
//
// Undo:
// Each history entry holds the pre-image snapshot of its operation. Undo
// restores it, including dependent collections removed by a cascade. Redo
// is reported as unsupported.
package engine
