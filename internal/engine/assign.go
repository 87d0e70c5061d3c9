package engine

import (
	"fmt"
	"time"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
)

// AssignKind selects how Assign changes each record.
type AssignKind string

const (
	AssignTeacher   AssignKind = "teacher"
	AssignCohort    AssignKind = "cohort"
	AssignCategory  AssignKind = "category"
	AssignAddTag    AssignKind = "addTag"
	AssignRemoveTag AssignKind = "removeTag"
	AssignField     AssignKind = "field"
)

// FieldTags is the string-set field addTag and removeTag use when the
// assignment names no field.
const FieldTags = "tags"

// Assignment is the payload of Assign.
//
// For teacher, cohort and category, Value replaces the field of the same
// name. For addTag and removeTag, Value must be a string and Field (default
// "tags") must hold an array on every record. Any other kind sets Field to
// Value.
type Assignment struct {
	Kind  AssignKind
	Field string
	Value record.Value
}

// Assign applies a to every selected record.
func (e *Engine) Assign(store *entity.Store, t entity.Type, ids []string, a Assignment, opts Options) (out *entity.Store, res Result) {
	defer e.recoverInto(OpAssign, t, ids, store, &out, &res)

	fn, err := a.rewrite()
	if err != nil {
		return store, e.structural(OpAssign, t, len(dedupe(ids)), err)
	}
	return e.mutate(OpAssign, store, t, ids, opts, fn)
}

// rewrite resolves the assignment into a per-record rewrite, rejecting
// malformed payloads up front.
func (a Assignment) rewrite() (rewrite, error) {
	value := a.Value
	if value == nil {
		value = record.Null{}
	}

	switch a.Kind {
	case AssignTeacher, AssignCohort, AssignCategory:
		field := string(a.Kind)
		return func(obj record.Object, _ time.Time) (record.Object, error) {
			return record.Merge(obj, record.Object{field: value}), nil
		}, nil

	case AssignAddTag, AssignRemoveTag:
		tag, ok := value.(record.String)
		if !ok {
			return nil, &OpError{
				Code:    ErrCodeInvalidAssignment,
				Message: fmt.Sprintf("%s requires a string value", a.Kind),
			}
		}
		field := a.Field
		if field == "" {
			field = FieldTags
		}
		add := a.Kind == AssignAddTag
		return func(obj record.Object, _ time.Time) (record.Object, error) {
			tags, err := tagsOf(obj, field)
			if err != nil {
				return nil, err
			}
			if add {
				tags = addTag(tags, string(tag))
			} else {
				tags = removeTag(tags, string(tag))
			}
			return record.Merge(obj, record.Object{field: tags}), nil
		}, nil

	default:
		if a.Field == "" {
			return nil, &OpError{
				Code:    ErrCodeInvalidAssignment,
				Message: fmt.Sprintf("assignment %q needs a field name", a.Kind),
			}
		}
		if a.Field == record.FieldID {
			return nil, &OpError{
				Code:    ErrCodeInvalidAssignment,
				Message: "the id field cannot be assigned",
			}
		}
		field := a.Field
		return func(obj record.Object, _ time.Time) (record.Object, error) {
			return record.Merge(obj, record.Object{field: value}), nil
		}, nil
	}
}

// tagsOf returns a copy of the string-set field. A missing or null field is
// an empty set.
func tagsOf(obj record.Object, field string) (record.Array, error) {
	switch v := obj[field].(type) {
	case nil, record.Null:
		return record.Array{}, nil
	case record.Array:
		out := make(record.Array, len(v))
		copy(out, v)
		return out, nil
	default:
		return nil, &OpError{
			Code:    ErrCodeInvalidAssignment,
			ID:      obj.ID(),
			Message: fmt.Sprintf("field %q is not a list", field),
		}
	}
}

func sameTag(v record.Value, tag string) bool {
	s, ok := v.(record.String)
	return ok && record.NormalizeString(string(s)) == record.NormalizeString(tag)
}

// addTag appends tag unless an equal tag is already present.
func addTag(tags record.Array, tag string) record.Array {
	for _, v := range tags {
		if sameTag(v, tag) {
			return tags
		}
	}
	return append(tags, record.String(tag))
}

// removeTag drops every occurrence of tag.
func removeTag(tags record.Array, tag string) record.Array {
	out := tags[:0]
	for _, v := range tags {
		if !sameTag(v, tag) {
			out = append(out, v)
		}
	}
	return out
}
