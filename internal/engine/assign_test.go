package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
	"github.com/roach88/rollcall/internal/testutil"
)

func taggedStore(t *testing.T, s1Tags, s2Tags record.Value) *entity.Store {
	t.Helper()
	s1 := testutil.Student("s1", "Ada")
	s2 := testutil.Student("s2", "Ben")
	if s1Tags != nil {
		s1[FieldTags] = s1Tags
	}
	if s2Tags != nil {
		s2[FieldTags] = s2Tags
	}
	return testutil.MustStore(t, map[entity.Type][]record.Object{
		entity.Students: {s1, s2},
	})
}

func TestAssign_ReplacesNamedField(t *testing.T) {
	for _, kind := range []AssignKind{AssignTeacher, AssignCohort, AssignCategory} {
		t.Run(string(kind), func(t *testing.T) {
			e := newTestEngine()
			store := testutil.SchoolStore(t)

			next, res := e.Assign(store, entity.Students, []string{"s1", "s2"}, Assignment{
				Kind:  kind,
				Value: record.String("blue"),
			}, Options{})

			assert.True(t, res.Success)
			assert.Equal(t, OpAssign, res.OperationType)
			assert.Equal(t, record.String("blue"), fieldOf(t, next, entity.Students, "s1", string(kind)))
			assert.Equal(t, record.String("blue"), fieldOf(t, next, entity.Students, "s2", string(kind)))
		})
	}
}

func TestAssign_AddTagIsIdempotent(t *testing.T) {
	e := newTestEngine()
	store := taggedStore(t, record.Strings("reading"), nil)

	next, res := e.Assign(store, entity.Students, []string{"s1", "s2"}, Assignment{
		Kind:  AssignAddTag,
		Value: record.String("reading"),
	}, Options{})

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, record.Strings("reading"), fieldOf(t, next, entity.Students, "s1", FieldTags))
	assert.Equal(t, record.Strings("reading"), fieldOf(t, next, entity.Students, "s2", FieldTags))
}

func TestAssign_AddTagComparesNormalizedForms(t *testing.T) {
	e := newTestEngine()
	store := taggedStore(t, record.Strings("cafe\u0301"), nil)

	next, _ := e.Assign(store, entity.Students, []string{"s1"}, Assignment{
		Kind:  AssignAddTag,
		Value: record.String("caf\u00e9"),
	}, Options{})

	assert.Equal(t, record.Strings("cafe\u0301"), fieldOf(t, next, entity.Students, "s1", FieldTags))
}

func TestAssign_RemoveTag(t *testing.T) {
	e := newTestEngine()
	store := taggedStore(t, record.Strings("reading", "math"), record.Strings("math"))

	next, res := e.Assign(store, entity.Students, []string{"s1", "s2"}, Assignment{
		Kind:  AssignRemoveTag,
		Value: record.String("reading"),
	}, Options{})

	assert.True(t, res.Success)
	assert.Equal(t, record.Strings("math"), fieldOf(t, next, entity.Students, "s1", FieldTags))
	assert.Equal(t, record.Strings("math"), fieldOf(t, next, entity.Students, "s2", FieldTags))
	assert.Equal(t, record.Strings("reading", "math"), fieldOf(t, store, entity.Students, "s1", FieldTags))
}

func TestAssign_CustomTagField(t *testing.T) {
	e := newTestEngine()
	store := testutil.SchoolStore(t)

	next, res := e.Assign(store, entity.Goals, []string{"g1"}, Assignment{
		Kind:  AssignAddTag,
		Field: "labels",
		Value: record.String("priority"),
	}, Options{})

	require.True(t, res.Success)
	assert.Equal(t, record.Strings("priority"), fieldOf(t, next, entity.Goals, "g1", "labels"))
}

func TestAssign_NonListTagFieldFailsPerRecord(t *testing.T) {
	e := newTestEngine()
	store := taggedStore(t, record.String("reading"), nil)

	next, res := e.Assign(store, entity.Students, []string{"s1", "s2"}, Assignment{
		Kind:  AssignAddTag,
		Value: record.String("math"),
	}, Options{})

	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
	assert.Equal(t, []string{"s2"}, res.AffectedIDs)
	failure, ok := res.ErrorFor("s1")
	require.True(t, ok)
	assert.Equal(t, ErrCodeInvalidAssignment, failure.Code)
	assert.Equal(t, record.String("reading"), fieldOf(t, next, entity.Students, "s1", FieldTags))
}

func TestAssign_NonStringTagIsStructural(t *testing.T) {
	e := newTestEngine()
	store := testutil.SchoolStore(t)

	next, res := e.Assign(store, entity.Students, []string{"s1", "s2"}, Assignment{
		Kind:  AssignAddTag,
		Value: record.Int(3),
	}, Options{})

	assert.Same(t, store, next)
	assert.Equal(t, ErrCodeInvalidAssignment, res.Code)
	assert.Equal(t, 2, res.TotalItems)
	assert.Equal(t, 2, res.FailureCount)
	assert.Equal(t, 0, res.SuccessCount)
}

func TestAssign_FieldFallback(t *testing.T) {
	e := newTestEngine()
	store := testutil.SchoolStore(t)

	next, res := e.Assign(store, entity.Students, []string{"s1"}, Assignment{
		Kind:  AssignKind("grade"),
		Field: "grade",
		Value: record.Int(4),
	}, Options{})

	require.True(t, res.Success)
	assert.Equal(t, record.Int(4), fieldOf(t, next, entity.Students, "s1", "grade"))
}

func TestAssign_FallbackNeedsField(t *testing.T) {
	e := newTestEngine()
	store := testutil.SchoolStore(t)

	next, res := e.Assign(store, entity.Students, []string{"s1"}, Assignment{
		Kind:  AssignField,
		Value: record.Int(4),
	}, Options{})

	assert.Same(t, store, next)
	assert.Equal(t, ErrCodeInvalidAssignment, res.Code)
}

func TestAssign_CannotReassignID(t *testing.T) {
	e := newTestEngine()
	store := testutil.SchoolStore(t)

	next, res := e.Assign(store, entity.Students, []string{"s1"}, Assignment{
		Kind:  AssignField,
		Field: "id",
		Value: record.String("s9"),
	}, Options{})

	assert.Same(t, store, next)
	assert.Equal(t, ErrCodeInvalidAssignment, res.Code)
}

func TestAssign_NilValueClearsField(t *testing.T) {
	e := newTestEngine()
	store := testutil.SchoolStore(t)

	next, res := e.Assign(store, entity.Students, []string{"s1"}, Assignment{Kind: AssignTeacher}, Options{})

	require.True(t, res.Success)
	assert.Equal(t, record.Null{}, fieldOf(t, next, entity.Students, "s1", "teacher"))
}

func TestAssign_TransactionalAbort(t *testing.T) {
	e := newTestEngine()
	store := testutil.SchoolStore(t)

	next, res := e.Assign(store, entity.Students, []string{"s1", "s2"}, Assignment{
		Kind:  AssignCohort,
		Value: record.String("red"),
	}, Options{Transactional: true, Validate: rejectIDs("s2")})

	assert.Same(t, store, next)
	assert.Equal(t, ErrCodeTransactionAborted, res.Code)
	assert.False(t, e.CanUndo())
}
