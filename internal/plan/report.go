package plan

import (
	"fmt"
	"io"

	"github.com/roach88/rollcall/internal/engine"
)

// WriteReport renders o as one line per step, followed by indented item
// failures and expectation mismatches. The output is stable for a given
// outcome and is what golden files record.
func WriteReport(w io.Writer, o *Outcome) error {
	verdict := "PASS"
	if !o.Pass {
		verdict = "FAIL"
	}
	if _, err := fmt.Fprintf(w, "plan %s: %s\n", o.Plan, verdict); err != nil {
		return err
	}
	for _, s := range o.Steps {
		if _, err := fmt.Fprintf(w, "%d. %s\n", s.Index+1, ResultLine(s.Result)); err != nil {
			return err
		}
		for _, item := range s.Result.Errors {
			id := item.ID
			if id == "" {
				id = "*"
			}
			if _, err := fmt.Fprintf(w, "   %s %s: %s\n", id, item.Code, item.Error); err != nil {
				return err
			}
		}
		for _, m := range s.Mismatches {
			if _, err := fmt.Fprintf(w, "   expect %s\n", m); err != nil {
				return err
			}
		}
	}
	return nil
}

// ResultLine summarizes one result on a single line.
func ResultLine(res engine.Result) string {
	entity := string(res.EntityType)
	if entity == "" {
		entity = "-"
	}
	state := "ok"
	switch {
	case res.Code != "":
		state = string(res.Code)
	case res.Partial():
		state = "partial"
	case !res.Success:
		state = "failed"
	}
	return fmt.Sprintf("%s %s %s total=%d succeeded=%d failed=%d",
		res.OperationType, entity, state,
		res.TotalItems, res.SuccessCount, res.FailureCount)
}
