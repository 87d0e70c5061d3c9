package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
)

var (
	t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Minute)
	t2 = t0.Add(2 * time.Minute)
)

func fixture(t *testing.T) *entity.Store {
	t.Helper()
	s, err := entity.NewStore(map[entity.Type][]record.Object{
		entity.Goals: {
			{"id": record.String("g1"), "status": record.String("active"), "tags": record.Strings("a")},
			{"id": record.String("g2"), "status": record.String("active")},
			{"id": record.String("g3"), "status": record.String("draft")},
		},
		entity.Logs: {
			{"id": record.String("l1"), "goalId": record.String("g1")},
		},
	}, t0)
	require.NoError(t, err)
	return s
}

func TestCapture_SelectsInCollectionOrder(t *testing.T) {
	s := fixture(t)

	snap := Capture(s, entity.Goals, []string{"g3", "g1", "missing"}, nil, t1)

	assert.Equal(t, entity.Goals, snap.EntityType)
	assert.Equal(t, t1, snap.Timestamp)
	assert.Equal(t, []string{"g1", "g3"}, snap.IDs())
	assert.Len(t, snap.AllEntities, 3)
	assert.Nil(t, snap.Dependents)
	assert.NotEmpty(t, snap.Digest)
}

func TestCapture_AbsentCollectionIsEmpty(t *testing.T) {
	snap := Capture(fixture(t), entity.Schedules, []string{"x"}, nil, t1)

	assert.Empty(t, snap.AllEntities)
	assert.Empty(t, snap.Entities)
	assert.NotNil(t, snap.AllEntities)
}

func TestCapture_NoAliasingWithLiveStore(t *testing.T) {
	s := fixture(t)
	snap := Capture(s, entity.Goals, []string{"g1"}, nil, t1)

	// Mutating the live records (which nothing in the module does, but a
	// careless caller might) must not reach the snapshot.
	s.Collection(entity.Goals)[0]["tags"].(record.Array)[0] = record.String("mutated")

	assert.Equal(t, record.String("a"), snap.AllEntities[0]["tags"].(record.Array)[0])
	assert.Equal(t, record.String("a"), snap.Entities[0]["tags"].(record.Array)[0])
}

func TestRestore_RoundTripAfterMutation(t *testing.T) {
	s := fixture(t)
	snap := Capture(s, entity.Goals, []string{"g1", "g2"}, nil, t1)

	mutated := s.With(entity.Goals, []record.Object{{"id": record.String("g9")}}, t1)

	restored, err := Restore(mutated, snap, t2)
	require.NoError(t, err)

	assert.Equal(t, s.Collection(entity.Goals), restored.Collection(entity.Goals))
	assert.Equal(t, s.Collection(entity.Logs), restored.Collection(entity.Logs))
	assert.Equal(t, t2, restored.LastUpdated())

	// Restoring twice from the same snapshot yields independent copies.
	again, err := Restore(mutated, snap, t2)
	require.NoError(t, err)
	restored.Collection(entity.Goals)[0]["status"] = record.String("changed")
	assert.Equal(t, record.String("active"), again.Collection(entity.Goals)[0]["status"])
	assert.Equal(t, record.String("active"), snap.AllEntities[0]["status"])
}

func TestRestore_IncludesDependents(t *testing.T) {
	s := fixture(t)
	snap := Capture(s, entity.Goals, []string{"g1"}, []entity.Type{entity.Logs}, t1)

	mutated := s.WithChanges(map[entity.Type][]record.Object{
		entity.Goals: {},
		entity.Logs:  {},
	}, t1)

	restored, err := Restore(mutated, snap, t2)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2", "g3"}, restored.IDs(entity.Goals))
	assert.Equal(t, []string{"l1"}, restored.IDs(entity.Logs))
	assert.Equal(t, []entity.Type{entity.Goals, entity.Logs}, snap.Types())
}

func TestRestore_InvalidSnapshots(t *testing.T) {
	s := fixture(t)

	tests := []struct {
		name string
		snap *Snapshot
	}{
		{"nil", nil},
		{"missing type", &Snapshot{}},
		{"unknown type", &Snapshot{EntityType: "teachers"}},
		{"unknown dependent", &Snapshot{
			EntityType: entity.Goals,
			Dependents: map[entity.Type][]record.Object{"teachers": {}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Restore(s, tt.snap, t1)
			require.ErrorIs(t, err, ErrInvalidSnapshot)
			assert.Nil(t, out)
		})
	}
}

func TestRestore_DetectsTamperedContent(t *testing.T) {
	s := fixture(t)
	snap := Capture(s, entity.Goals, []string{"g1"}, nil, t1)

	snap.AllEntities = snap.AllEntities[:1]

	_, err := Restore(s, snap, t2)
	require.ErrorIs(t, err, ErrInvalidSnapshot)
	assert.Contains(t, err.Error(), "digest")
}
