// Package history keeps the bounded, linear undo timeline of executed
// batch operations.
//
// The timeline is a slice plus a cursor. Entries before the cursor are
// undoable; entries at or after it were undone and are only kept until the
// next Push truncates them. Pushing past capacity evicts the oldest entry,
// which is then unrecoverable.
//
// A History is owned by one session. It is not safe for concurrent use.
package history

import (
	"time"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/snapshot"
)

// DefaultCapacity is the number of entries kept when New is given a
// non-positive capacity.
const DefaultCapacity = 50

// Summary is the outcome of the operation an Entry records.
type Summary struct {
	TotalItems   int       `json:"totalItems"`
	SuccessCount int       `json:"successCount"`
	FailureCount int       `json:"failureCount"`
	AffectedIDs  []string  `json:"affectedIds"`
	At           time.Time `json:"at"`
}

// Entry is one undoable unit of work.
type Entry struct {
	Type       string             `json:"type"`
	EntityType entity.Type        `json:"entityType"`
	Snapshot   *snapshot.Snapshot `json:"snapshot"`
	Summary    Summary            `json:"summary"`
}

// History is a bounded undo stack with a cursor.
type History struct {
	entries  []Entry
	cursor   int
	capacity int
}

// New creates an empty history holding at most capacity entries.
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{capacity: capacity}
}

// Capacity returns the maximum number of entries kept.
func (h *History) Capacity() int {
	return h.capacity
}

// Push records e as the most recent operation. Entries ahead of the cursor
// are discarded first. When the history is full the oldest entry is evicted
// and the cursor stays at the end.
func (h *History) Push(e Entry) {
	if h.cursor < len(h.entries) {
		clear(h.entries[h.cursor:])
		h.entries = h.entries[:h.cursor]
	}
	h.entries = append(h.entries, e)
	if len(h.entries) > h.capacity {
		h.entries[0] = Entry{}
		h.entries = h.entries[1:]
	}
	h.cursor = len(h.entries)
}

// Undo moves the cursor back one entry and returns that entry.
// It returns false when there is nothing to undo.
func (h *History) Undo() (Entry, bool) {
	if h.cursor == 0 {
		return Entry{}, false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Reinstate moves the cursor forward over the most recently undone entry,
// making it undoable again. Used to compensate when applying an undo fails.
// It returns false when no undone entry is available.
func (h *History) Reinstate() bool {
	if h.cursor >= len(h.entries) {
		return false
	}
	h.cursor++
	return true
}

// Peek returns the entry the next Undo would return, without moving.
func (h *History) Peek() (Entry, bool) {
	if h.cursor == 0 {
		return Entry{}, false
	}
	return h.entries[h.cursor-1], true
}

// CanUndo reports whether Undo would return an entry.
func (h *History) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether undone entries are still held ahead of the cursor.
func (h *History) CanRedo() bool {
	return h.cursor < len(h.entries)
}

// Len returns the number of undoable entries.
func (h *History) Len() int {
	return h.cursor
}

// Entries returns the undoable entries, oldest first.
func (h *History) Entries() []Entry {
	out := make([]Entry, h.cursor)
	copy(out, h.entries[:h.cursor])
	return out
}

// Clear drops every entry.
func (h *History) Clear() {
	clear(h.entries)
	h.entries = h.entries[:0]
	h.cursor = 0
}
