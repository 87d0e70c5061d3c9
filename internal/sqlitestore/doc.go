// Package sqlitestore persists entity store documents in SQLite.
//
// It is the persistence collaborator of the batch engine: the engine never
// touches storage, callers load a document, run operations, and save the
// store they get back.
//
// # Tables
//
//   - documents: one row per named document holding its JSON body, version,
//     lastUpdated and a domain-separated SHA-256 digest of the body
//   - collections: record count and digest per collection, used for
//     listings without decoding bodies
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: 5 second lock wait
//   - foreign_keys=ON: collections rows follow their document
//
// Only the current document is stored. Undo history lives in memory for one
// session and is not persisted.
package sqlitestore
