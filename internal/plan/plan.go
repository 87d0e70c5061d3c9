package plan

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Op names a plan step operation.
type Op string

const (
	OpEdit      Op = "edit"
	OpStatus    Op = "status"
	OpAssign    Op = "assign"
	OpDuplicate Op = "duplicate"
	OpDelete    Op = "delete"
	OpExport    Op = "export"
	OpUndo      Op = "undo"
	OpRedo      Op = "redo"
)

// Plan is a named sequence of batch operations.
type Plan struct {
	// Name identifies the plan in output and golden files.
	Name string `yaml:"name"`

	// Description explains what the plan does.
	Description string `yaml:"description"`

	// Steps run in order against one store and one history.
	Steps []Step `yaml:"steps"`
}

// Step is one operation in a plan.
type Step struct {
	Op     Op       `yaml:"op"`
	Entity string   `yaml:"entity,omitempty"`
	IDs    []string `yaml:"ids,omitempty"`

	// All selects every record of Entity at the time the step runs.
	All bool `yaml:"all,omitempty"`

	Patch  map[string]any `yaml:"patch,omitempty"`
	Status string         `yaml:"status,omitempty"`
	Assign *AssignStep    `yaml:"assign,omitempty"`

	Transactional bool `yaml:"transactional,omitempty"`
	Cascade       bool `yaml:"cascade,omitempty"`
	Validate      bool `yaml:"validate,omitempty"`

	// Filename is the export target, relative to the runner's writer.
	Filename string `yaml:"filename,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// AssignStep is the payload of an assign step.
type AssignStep struct {
	Kind  string `yaml:"kind"`
	Field string `yaml:"field,omitempty"`
	Value any    `yaml:"value"`
}

// Expect lists the result fields a step is checked against. Nil fields are
// not checked.
type Expect struct {
	Success      *bool   `yaml:"success,omitempty"`
	SuccessCount *int    `yaml:"successCount,omitempty"`
	FailureCount *int    `yaml:"failureCount,omitempty"`
	TotalItems   *int    `yaml:"totalItems,omitempty"`
	Code         *string `yaml:"code,omitempty"`
}

// Load reads and parses a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a plan. Unknown fields are rejected so typos surface early.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validatePlan(&p); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	return &p, nil
}

func validatePlan(p *Plan) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i := range p.Steps {
		if err := validateStep(i, &p.Steps[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks the fields each op needs. Entity names are not
// checked here; the engine reports unknown types in the step result.
func validateStep(index int, s *Step) error {
	switch s.Op {
	case OpUndo, OpRedo:
		if s.Entity != "" || len(s.IDs) > 0 || s.All {
			return fmt.Errorf("steps[%d]: %s takes no selection", index, s.Op)
		}
		return nil
	case OpEdit, OpStatus, OpAssign, OpDuplicate, OpDelete, OpExport:
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}

	if s.Entity == "" {
		return fmt.Errorf("steps[%d]: entity is required for %s", index, s.Op)
	}
	if s.All && len(s.IDs) > 0 {
		return fmt.Errorf("steps[%d]: ids and all are mutually exclusive", index)
	}

	switch s.Op {
	case OpEdit:
		if len(s.Patch) == 0 {
			return fmt.Errorf("steps[%d]: patch is required for edit", index)
		}
	case OpStatus:
		if s.Status == "" {
			return fmt.Errorf("steps[%d]: status is required for status", index)
		}
	case OpAssign:
		if s.Assign == nil || s.Assign.Kind == "" {
			return fmt.Errorf("steps[%d]: assign.kind is required for assign", index)
		}
	case OpExport:
		if s.Filename == "" {
			return fmt.Errorf("steps[%d]: filename is required for export", index)
		}
	}
	if s.Cascade && s.Op != OpDelete {
		return fmt.Errorf("steps[%d]: cascade only applies to delete", index)
	}
	if s.Validate && (s.Op == OpDelete || s.Op == OpExport) {
		return fmt.Errorf("steps[%d]: validate does not apply to %s", index, s.Op)
	}
	return nil
}
