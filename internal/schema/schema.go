// Package schema compiles per-entity record validators from CUE.
//
// A schema file declares one top-level struct per entity type. Each struct
// constrains the records of that collection; fields it does not mention
// are allowed, so records keep their loose shape:
//
//	goals: {
//		id:          string & != ""
//		studentId:   string
//		description: string & != ""
//		status?:     "active" | "completed" | "archived"
//	}
//
// Validators returned by Schema.Validator plug into engine.Options.Validate.
package schema

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
)

// Error is a schema compile or validation failure with its CUE position
// when one is known.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Schema holds the compiled constraints for a set of entity types.
//
// Thread-safety: a Schema wraps a single cue.Context and must not be used
// from several goroutines at once.
type Schema struct {
	ctx   *cue.Context
	types map[entity.Type]cue.Value
	order []entity.Type
}

// Load reads and compiles the schema file at path.
func Load(path string) (*Schema, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Compile(src, path)
}

// Compile compiles CUE source. filename is used in error positions.
// Every top-level field must name an entity type.
func Compile(src []byte, filename string) (*Schema, error) {
	ctx := cuecontext.New()
	root := ctx.CompileBytes(src, cue.Filename(filename))
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	it, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	s := &Schema{ctx: ctx, types: map[entity.Type]cue.Value{}}
	for it.Next() {
		label := it.Selector().String()
		t, err := entity.Parse(label)
		if err != nil {
			return nil, &Error{
				Field:   label,
				Message: "not an entity type",
				Pos:     it.Value().Pos(),
			}
		}
		if it.Value().IncompleteKind() != cue.StructKind {
			return nil, &Error{
				Field:   label,
				Message: "must be a struct",
				Pos:     it.Value().Pos(),
			}
		}
		s.types[t] = it.Value()
	}
	for _, t := range entity.All() {
		if _, ok := s.types[t]; ok {
			s.order = append(s.order, t)
		}
	}
	return s, nil
}

// Has reports whether the schema constrains t.
func (s *Schema) Has(t entity.Type) bool {
	_, ok := s.types[t]
	return ok
}

// Types returns the constrained entity types in canonical order.
func (s *Schema) Types() []entity.Type {
	out := make([]entity.Type, len(s.order))
	copy(out, s.order)
	return out
}

// Check validates obj against the constraints for t. Types without
// constraints accept every record.
func (s *Schema) Check(t entity.Type, obj record.Object) error {
	constraint, ok := s.types[t]
	if !ok {
		return nil
	}
	data := s.ctx.Encode(record.ToAny(obj))
	if err := data.Err(); err != nil {
		return formatCUEError(err)
	}
	unified := constraint.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		errs := errors.Errors(err)
		msg := err.Error()
		if len(errs) > 0 {
			msg = errs[0].Error()
		}
		return &Error{Field: string(t), Message: msg}
	}
	return nil
}

// Validator returns a record validator for t, or nil when the schema does
// not constrain t.
func (s *Schema) Validator(t entity.Type) func(record.Object) error {
	if !s.Has(t) {
		return nil
	}
	return func(obj record.Object) error {
		return s.Check(t, obj)
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &Error{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
