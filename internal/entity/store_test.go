package entity

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/record"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func goal(id, studentID string) record.Object {
	return record.Object{"id": record.String(id), "studentId": record.String(studentID)}
}

func TestParse(t *testing.T) {
	for _, typ := range All() {
		got, err := Parse(string(typ))
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}

	_, err := Parse("teachers")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestNewStore_RejectsMissingAndDuplicateIDs(t *testing.T) {
	_, err := NewStore(map[Type][]record.Object{
		Goals: {goal("g1", "s1"), {"studentId": record.String("s1")}},
	}, t0)
	require.ErrorIs(t, err, ErrMissingID)

	_, err = NewStore(map[Type][]record.Object{
		Goals: {goal("g1", "s1"), goal("g1", "s2")},
	}, t0)
	require.ErrorIs(t, err, ErrDuplicateID)

	_, err = NewStore(map[Type][]record.Object{"teachers": {}}, t0)
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestStore_WithSharesUntouchedCollections(t *testing.T) {
	s, err := NewStore(map[Type][]record.Object{
		Students: {{"id": record.String("s1")}},
		Goals:    {goal("g1", "s1")},
	}, t0)
	require.NoError(t, err)

	later := t0.Add(time.Minute)
	next := s.With(Goals, []record.Object{goal("g2", "s1")}, later)

	// Original untouched.
	assert.Equal(t, []string{"g1"}, s.IDs(Goals))
	assert.Equal(t, int64(0), s.Version())

	assert.Equal(t, []string{"g2"}, next.IDs(Goals))
	assert.Equal(t, int64(1), next.Version())
	assert.Equal(t, later, next.LastUpdated())
	assert.Same(t, &s.Collection(Students)[0], &next.Collection(Students)[0])
}

func TestStore_Find(t *testing.T) {
	s, err := NewStore(map[Type][]record.Object{Goals: {goal("g1", "s1"), goal("g2", "s1")}}, t0)
	require.NoError(t, err)

	obj, idx, ok := s.Find(Goals, "g2")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "g2", obj.ID())

	_, _, ok = s.Find(Logs, "g2")
	assert.False(t, ok)
}

func TestStore_TypesCanonicalOrder(t *testing.T) {
	s, err := NewStore(map[Type][]record.Object{Logs: {}, Students: {}}, t0)
	require.NoError(t, err)
	assert.Equal(t, []Type{Students, Logs}, s.Types())
	assert.True(t, s.Has(Logs))
	assert.False(t, s.Has(Goals))
}

func TestStore_JSONRoundTrip(t *testing.T) {
	s, err := NewStore(map[Type][]record.Object{
		Goals:    {goal("g1", "s1")},
		Students: {{"id": record.String("s1"), "name": record.String("Ada")}},
	}, t0)
	require.NoError(t, err)
	s = s.With(Logs, []record.Object{}, t0)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"students":[{"id":"s1","name":"Ada"}],
		"goals":[{"id":"g1","studentId":"s1"}],
		"logs":[],
		"version":1,
		"lastUpdated":"2026-03-01T09:00:00.000Z"
	}`, string(data))

	var decoded Store
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s.Version(), decoded.Version())
	assert.Equal(t, s.LastUpdated(), decoded.LastUpdated())
	assert.Equal(t, s.Collection(Goals), decoded.Collection(Goals))
	assert.Equal(t, s.Types(), decoded.Types())
}

func TestStore_UnmarshalRejectsUnknownCollection(t *testing.T) {
	var s Store
	err := json.Unmarshal([]byte(`{"teachers":[]}`), &s)
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 0, 0, 123456789, time.FixedZone("X", 3600))
	assert.Equal(t, "2026-03-01T08:00:00.123Z", FormatTimestamp(ts))
}
