package plan

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
	"github.com/roach88/rollcall/internal/schema"
	"github.com/roach88/rollcall/internal/selection"
)

// Runner executes plans against an engine.
type Runner struct {
	engine *engine.Engine
	schema *schema.Schema
	writer engine.RowWriter
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithSchema sets the schema used by steps with validate: true.
func WithSchema(s *schema.Schema) RunnerOption {
	return func(r *Runner) {
		r.schema = s
	}
}

// WithRowWriter sets the destination for export steps.
func WithRowWriter(w engine.RowWriter) RunnerOption {
	return func(r *Runner) {
		r.writer = w
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a Runner over e. The engine's history is shared by every
// plan the runner executes.
func NewRunner(e *engine.Engine, opts ...RunnerOption) *Runner {
	r := &Runner{engine: e, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StepOutcome is the result of one step and any expectation mismatches.
type StepOutcome struct {
	Index      int           `json:"index"`
	Op         Op            `json:"op"`
	Result     engine.Result `json:"result"`
	Mismatches []string      `json:"mismatches,omitempty"`
}

// Outcome is the result of a plan run.
type Outcome struct {
	Plan  string        `json:"plan"`
	Pass  bool          `json:"pass"`
	Steps []StepOutcome `json:"steps"`

	// Store is the store after the last step.
	Store *entity.Store `json:"-"`
}

// Mismatches returns every expectation mismatch, prefixed with its step
// number.
func (o *Outcome) Mismatches() []string {
	var out []string
	for _, s := range o.Steps {
		for _, m := range s.Mismatches {
			out = append(out, fmt.Sprintf("step %d (%s): %s", s.Index+1, s.Op, m))
		}
	}
	return out
}

// Run executes every step of p starting from store.
//
// Operation failures are reported in the step results. An error is
// returned only when a step cannot be built: a malformed patch or
// assignment value, validate without a schema, or export without a writer.
func (r *Runner) Run(store *entity.Store, p *Plan) (*Outcome, error) {
	out := &Outcome{Plan: p.Name, Pass: true, Steps: make([]StepOutcome, 0, len(p.Steps))}
	r.logger.Info("plan starting", "plan", p.Name, "steps", len(p.Steps))

	for i := range p.Steps {
		step := &p.Steps[i]
		next, res, err := r.runStep(store, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
		store = next

		so := StepOutcome{Index: i, Op: step.Op, Result: res}
		if step.Expect != nil {
			so.Mismatches = step.Expect.check(res)
		}
		if len(so.Mismatches) > 0 {
			out.Pass = false
			r.logger.Warn("plan step mismatch",
				"plan", p.Name,
				"step", i+1,
				"op", step.Op,
				"mismatches", strings.Join(so.Mismatches, "; "),
			)
		}
		out.Steps = append(out.Steps, so)
	}

	out.Store = store
	r.logger.Info("plan finished", "plan", p.Name, "pass", out.Pass)
	return out, nil
}

func (r *Runner) runStep(store *entity.Store, s *Step) (*entity.Store, engine.Result, error) {
	t := entity.Type(s.Entity)
	ids := r.selectIDs(store, t, s)

	opts := engine.Options{Transactional: s.Transactional}
	if s.Validate {
		if r.schema == nil {
			return nil, engine.Result{}, fmt.Errorf("validate requires a schema")
		}
		opts.Validate = r.schema.Validator(t)
	}

	switch s.Op {
	case OpEdit:
		patch, err := record.ObjectFromMap(s.Patch)
		if err != nil {
			return nil, engine.Result{}, fmt.Errorf("patch: %w", err)
		}
		next, res := r.engine.Edit(store, t, ids, patch, opts)
		return next, res, nil

	case OpStatus:
		next, res := r.engine.StatusChange(store, t, ids, s.Status, opts)
		return next, res, nil

	case OpAssign:
		value, err := record.FromAny(s.Assign.Value)
		if err != nil {
			return nil, engine.Result{}, fmt.Errorf("assign.value: %w", err)
		}
		a := engine.Assignment{
			Kind:  engine.AssignKind(s.Assign.Kind),
			Field: s.Assign.Field,
			Value: value,
		}
		next, res := r.engine.Assign(store, t, ids, a, opts)
		return next, res, nil

	case OpDuplicate:
		dopts := engine.DuplicateOptions{Options: opts}
		if len(s.Patch) > 0 {
			patch, err := record.ObjectFromMap(s.Patch)
			if err != nil {
				return nil, engine.Result{}, fmt.Errorf("patch: %w", err)
			}
			dopts.Transform = func(clone record.Object) {
				for k, v := range patch {
					clone[k] = record.Clone(v)
				}
			}
		}
		next, res := r.engine.Duplicate(store, t, ids, dopts)
		return next, res, nil

	case OpDelete:
		next, res := r.engine.Delete(store, t, ids, engine.DeleteOptions{
			Transactional: s.Transactional,
			Cascade:       s.Cascade,
		})
		return next, res, nil

	case OpExport:
		if r.writer == nil {
			return nil, engine.Result{}, fmt.Errorf("export requires an output directory")
		}
		res := r.engine.Export(store, t, ids, s.Filename, r.writer)
		return store, res, nil

	case OpUndo:
		next, res := r.engine.Undo(store)
		return next, res, nil

	case OpRedo:
		next, res := r.engine.Redo(store)
		return next, res, nil

	default:
		return nil, engine.Result{}, fmt.Errorf("unknown op %q", s.Op)
	}
}

func (r *Runner) selectIDs(store *entity.Store, t entity.Type, s *Step) []string {
	if s.All {
		return selection.All(store.IDs(t))
	}
	return selection.Union(selection.None[string](), s.IDs)
}

// check compares res against the expectation.
func (x *Expect) check(res engine.Result) []string {
	var mismatches []string
	if x.Success != nil && *x.Success != res.Success {
		mismatches = append(mismatches, fmt.Sprintf("success: expected %t, got %t", *x.Success, res.Success))
	}
	if x.SuccessCount != nil && *x.SuccessCount != res.SuccessCount {
		mismatches = append(mismatches, fmt.Sprintf("successCount: expected %d, got %d", *x.SuccessCount, res.SuccessCount))
	}
	if x.FailureCount != nil && *x.FailureCount != res.FailureCount {
		mismatches = append(mismatches, fmt.Sprintf("failureCount: expected %d, got %d", *x.FailureCount, res.FailureCount))
	}
	if x.TotalItems != nil && *x.TotalItems != res.TotalItems {
		mismatches = append(mismatches, fmt.Sprintf("totalItems: expected %d, got %d", *x.TotalItems, res.TotalItems))
	}
	if x.Code != nil && *x.Code != string(res.Code) {
		mismatches = append(mismatches, fmt.Sprintf("code: expected %q, got %q", *x.Code, res.Code))
	}
	return mismatches
}
