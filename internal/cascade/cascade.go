// Package cascade removes dependent records after a delete.
//
// Rules are keyed by the deleted collection's type and applied one level at
// a time; transitive effects are chained explicitly inside a rule:
//
//	students -> goals (studentId) -> logs (goalId)
//	goals    -> logs (goalId)
//
// Every other type has no rule and passes through unchanged.
package cascade

import (
	"time"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
)

// Foreign-key fields followed by the rules.
const (
	FieldStudentID = "studentId"
	FieldGoalID    = "goalId"
)

// Report lists the ids removed from each dependent collection, in
// collection order. Types with nothing removed are absent.
type Report struct {
	Removed map[entity.Type][]string
}

// Count returns the number of records removed from t.
func (r Report) Count(t entity.Type) int {
	return len(r.Removed[t])
}

// Total returns the number of records removed across all collections.
func (r Report) Total() int {
	n := 0
	for _, ids := range r.Removed {
		n += len(ids)
	}
	return n
}

type rule struct {
	// dependents lists every collection apply may replace.
	dependents []entity.Type
	apply      func(s *entity.Store, deleted map[string]struct{}) (map[entity.Type][]record.Object, Report)
}

var rules = map[entity.Type]rule{
	entity.Students: {
		dependents: []entity.Type{entity.Goals, entity.Logs},
		apply:      cascadeStudents,
	},
	entity.Goals: {
		dependents: []entity.Type{entity.Logs},
		apply:      cascadeGoals,
	},
}

// Dependents returns the collections a delete from t may cascade into.
// Snapshots taken before a cascading delete must include them.
func Dependents(t entity.Type) []entity.Type {
	r, ok := rules[t]
	if !ok {
		return nil
	}
	out := make([]entity.Type, len(r.dependents))
	copy(out, r.dependents)
	return out
}

// Resolve removes the records that depend on deletedIDs of type t.
// The store passed in must already have the deleted records removed from t.
// When nothing depends on the deletion, the input store is returned as-is.
func Resolve(s *entity.Store, t entity.Type, deletedIDs []string, ts time.Time) (*entity.Store, Report) {
	r, ok := rules[t]
	if !ok || len(deletedIDs) == 0 {
		return s, Report{}
	}

	deleted := make(map[string]struct{}, len(deletedIDs))
	for _, id := range deletedIDs {
		deleted[id] = struct{}{}
	}

	changes, report := r.apply(s, deleted)
	if len(changes) == 0 {
		return s, report
	}
	return s.WithChanges(changes, ts), report
}

func cascadeStudents(s *entity.Store, deleted map[string]struct{}) (map[entity.Type][]record.Object, Report) {
	changes := map[entity.Type][]record.Object{}
	report := Report{Removed: map[entity.Type][]string{}}

	goals, removedGoals := removeWhere(s.Collection(entity.Goals), func(obj record.Object) bool {
		sid, ok := obj.GetString(FieldStudentID)
		if !ok {
			return false
		}
		_, gone := deleted[sid]
		return gone
	})
	if len(removedGoals) > 0 {
		changes[entity.Goals] = goals
		report.Removed[entity.Goals] = removedGoals
	}

	// Valid goal ids are derived from the goals that survive the deletion
	// above. Filtering against the pre-deletion set would keep orphans.
	valid := make(map[string]struct{}, len(goals))
	for _, g := range goals {
		valid[g.ID()] = struct{}{}
	}
	logs, removedLogs := removeWhere(s.Collection(entity.Logs), func(obj record.Object) bool {
		gid, ok := obj.GetString(FieldGoalID)
		if !ok {
			return false
		}
		_, alive := valid[gid]
		return !alive
	})
	if len(removedLogs) > 0 {
		changes[entity.Logs] = logs
		report.Removed[entity.Logs] = removedLogs
	}

	return changes, report
}

func cascadeGoals(s *entity.Store, deleted map[string]struct{}) (map[entity.Type][]record.Object, Report) {
	report := Report{Removed: map[entity.Type][]string{}}

	logs, removed := removeWhere(s.Collection(entity.Logs), func(obj record.Object) bool {
		gid, ok := obj.GetString(FieldGoalID)
		if !ok {
			return false
		}
		_, gone := deleted[gid]
		return gone
	})
	if len(removed) == 0 {
		return nil, report
	}
	report.Removed[entity.Logs] = removed
	return map[entity.Type][]record.Object{entity.Logs: logs}, report
}

// removeWhere returns the records that do not match and the ids of those
// that do, both in collection order.
func removeWhere(objs []record.Object, match func(record.Object) bool) ([]record.Object, []string) {
	kept := make([]record.Object, 0, len(objs))
	var removed []string
	for _, obj := range objs {
		if match(obj) {
			removed = append(removed, obj.ID())
			continue
		}
		kept = append(kept, obj)
	}
	return kept, removed
}
