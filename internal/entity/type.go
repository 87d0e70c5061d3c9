package entity

import (
	"errors"
	"fmt"
)

// Type identifies one of the fixed record collections held by a Store.
// The set is closed: Parse rejects anything not listed in All.
type Type string

const (
	// Students holds student profiles.
	Students Type = "students"
	// Goals holds goals; each carries a studentId.
	Goals Type = "goals"
	// Logs holds progress entries; each carries a goalId.
	Logs Type = "logs"
	// Schedules holds service schedules.
	Schedules Type = "schedules"
	// Accommodations holds per-student accommodations.
	Accommodations Type = "accommodations"
	// BehaviorLogs holds behavior incident entries.
	BehaviorLogs Type = "behaviorLogs"
	// PresentLevels holds present-levels-of-performance statements.
	PresentLevels Type = "presentLevels"
	// ServiceLogs holds delivered-service entries.
	ServiceLogs Type = "serviceLogs"
)

// ErrUnknownType is returned when a name is not one of the known types.
var ErrUnknownType = errors.New("unknown entity type")

var allTypes = []Type{
	Students,
	Goals,
	Logs,
	Schedules,
	Accommodations,
	BehaviorLogs,
	PresentLevels,
	ServiceLogs,
}

var knownTypes = func() map[Type]struct{} {
	m := make(map[Type]struct{}, len(allTypes))
	for _, t := range allTypes {
		m[t] = struct{}{}
	}
	return m
}()

// All returns every known type in canonical order.
func All() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	_, ok := knownTypes[t]
	return ok
}

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// Parse converts a collection name into a Type.
func Parse(name string) (Type, error) {
	t := Type(name)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return t, nil
}
