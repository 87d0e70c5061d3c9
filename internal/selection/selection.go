// Package selection builds the set of record ids targeted by the next batch
// operation from click, shift-click and select-all interactions.
//
// All functions are pure: they never modify their arguments and always
// return a fresh slice. Selections keep insertion order and hold no
// duplicates.
package selection

// Toggle adds id to selected when absent and removes it when present.
func Toggle[T comparable](selected []T, id T) []T {
	out := make([]T, 0, len(selected)+1)
	found := false
	for _, s := range selected {
		if s == id {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, id)
	}
	return out
}

// Range unions into selected every id of all between anchor and clicked,
// inclusive, in either direction. It never removes ids. An anchor missing
// from all selects just clicked; a clicked id missing from all leaves the
// selection unchanged.
func Range[T comparable](all, selected []T, anchor, clicked T) []T {
	end := indexOf(all, clicked)
	if end < 0 {
		return clone(selected)
	}
	start := indexOf(all, anchor)
	if start < 0 {
		start = end
	}
	if start > end {
		start, end = end, start
	}
	return Union(selected, all[start:end+1])
}

// Union returns selected followed by the ids of add not already present.
func Union[T comparable](selected, add []T) []T {
	seen := make(map[T]struct{}, len(selected)+len(add))
	out := make([]T, 0, len(selected)+len(add))
	for _, group := range [][]T{selected, add} {
		for _, id := range group {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// All returns a copy of the full id list.
func All[T any](all []T) []T {
	return clone(all)
}

// None returns an empty selection.
func None[T any]() []T {
	return []T{}
}

// Contains reports whether id is selected.
func Contains[T comparable](selected []T, id T) bool {
	return indexOf(selected, id) >= 0
}

func indexOf[T comparable](ids []T, id T) int {
	for i, s := range ids {
		if s == id {
			return i
		}
	}
	return -1
}

func clone[T any](ids []T) []T {
	out := make([]T, len(ids))
	copy(out, ids)
	return out
}
