package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
)

// Student builds a student record.
func Student(id, name string) record.Object {
	return record.Object{
		"id":     record.String(id),
		"name":   record.String(name),
		"status": record.String("active"),
	}
}

// Goal builds an active goal belonging to studentID.
func Goal(id, studentID, description string) record.Object {
	return record.Object{
		"id":          record.String(id),
		"studentId":   record.String(studentID),
		"description": record.String(description),
		"status":      record.String("active"),
	}
}

// Log builds a progress log for goalID. An empty goalID leaves the field
// out.
func Log(id, goalID string, score int64) record.Object {
	obj := record.Object{
		"id":    record.String(id),
		"score": record.Int(score),
	}
	if goalID != "" {
		obj["goalId"] = record.String(goalID)
	}
	return obj
}

// MustStore builds a store stamped at Epoch and fails the test on invalid
// input.
func MustStore(t testing.TB, collections map[entity.Type][]record.Object) *entity.Store {
	t.Helper()
	s, err := entity.NewStore(collections, Epoch)
	require.NoError(t, err)
	return s
}

// SchoolStore returns a small linked data set:
//
//	s1 Ada   -> g1 "Read fluently" -> l1, l2
//	         -> g2 "Count to 100"  -> l3
//	s2 Ben   -> g3 "Write a paragraph" -> l4
//	l5 has no goal
func SchoolStore(t testing.TB) *entity.Store {
	t.Helper()
	return MustStore(t, map[entity.Type][]record.Object{
		entity.Students: {
			Student("s1", "Ada"),
			Student("s2", "Ben"),
		},
		entity.Goals: {
			Goal("g1", "s1", "Read fluently"),
			Goal("g2", "s1", "Count to 100"),
			Goal("g3", "s2", "Write a paragraph"),
		},
		entity.Logs: {
			Log("l1", "g1", 3),
			Log("l2", "g1", 4),
			Log("l3", "g2", 2),
			Log("l4", "g3", 5),
			Log("l5", "", 1),
		},
	})
}
