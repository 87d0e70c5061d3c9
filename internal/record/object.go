package record

// FieldID is the only field the engine requires on every record.
const FieldID = "id"

// ID returns the record's identifier, or "" when the id field is absent or
// not a string.
func (obj Object) ID() string {
	if s, ok := obj[FieldID].(String); ok {
		return string(s)
	}
	return ""
}

// GetString returns a string field and whether it was present as a string.
func (obj Object) GetString(field string) (string, bool) {
	s, ok := obj[field].(String)
	return string(s), ok
}

// Clone returns a deep copy of the object. Nil clones to nil.
func (obj Object) Clone() Object {
	if obj == nil {
		return nil
	}
	out := make(Object, len(obj))
	for k, v := range obj {
		out[k] = Clone(v)
	}
	return out
}

// Clone returns a deep copy of v. Scalars are returned as-is.
func Clone(v Value) Value {
	switch val := v.(type) {
	case Array:
		if val == nil {
			return Array(nil)
		}
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = Clone(elem)
		}
		return out
	case Object:
		return val.Clone()
	default:
		return v
	}
}

// CloneAll deep-copies a slice of records, preserving order.
// The result is never nil so that empty collections encode as [].
func CloneAll(objs []Object) []Object {
	out := make([]Object, len(objs))
	for i, obj := range objs {
		out[i] = obj.Clone()
	}
	return out
}

// Merge returns {...base, ...patch} as a new object. The base's values are
// shared (they are never mutated); patch values are deep-copied so the
// caller may reuse the patch.
func Merge(base, patch Object) Object {
	out := make(Object, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = Clone(v)
	}
	return out
}

// With returns a shallow copy of obj with field set to v.
func (obj Object) With(field string, v Value) Object {
	return Merge(obj, Object{field: v})
}
