package engine

import (
	"fmt"
	"time"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
)

// RowWriter receives the rows built by Export, header first, and persists
// them under filename.
type RowWriter interface {
	WriteRows(filename string, rows [][]string) error
}

// RowWriterFunc adapts a function to the RowWriter interface.
type RowWriterFunc func(filename string, rows [][]string) error

// WriteRows implements RowWriter.
func (f RowWriterFunc) WriteRows(filename string, rows [][]string) error {
	return f(filename, rows)
}

// Column maps a record field to an export column.
type Column struct {
	Header string
	Field  string
}

var exportColumns = map[entity.Type][]Column{
	entity.Students: {
		{"ID", "id"},
		{"Name", "name"},
		{"Grade", "grade"},
		{"Teacher", "teacher"},
		{"Cohort", "cohort"},
		{"Status", "status"},
	},
	entity.Goals: {
		{"ID", "id"},
		{"Student ID", "studentId"},
		{"Description", "description"},
		{"Category", "category"},
		{"Status", "status"},
		{"Target Date", "targetDate"},
	},
	entity.Logs: {
		{"ID", "id"},
		{"Goal ID", "goalId"},
		{"Date", "date"},
		{"Score", "score"},
		{"Notes", "notes"},
	},
	entity.Schedules: {
		{"ID", "id"},
		{"Student ID", "studentId"},
		{"Day", "day"},
		{"Start", "startTime"},
		{"End", "endTime"},
		{"Activity", "activity"},
	},
	entity.Accommodations: {
		{"ID", "id"},
		{"Student ID", "studentId"},
		{"Type", "type"},
		{"Description", "description"},
	},
	entity.ServiceLogs: {
		{"ID", "id"},
		{"Student ID", "studentId"},
		{"Service", "service"},
		{"Date", "date"},
		{"Minutes", "minutes"},
		{"Provider", "provider"},
	},
}

// fallbackColumns is used for types without a column table. The second
// column holds the whole record as canonical JSON.
var fallbackColumns = []Column{{"id", "id"}, {"json", ""}}

// Columns returns the export layout for t.
func Columns(t entity.Type) []Column {
	cols, ok := exportColumns[t]
	if !ok {
		cols = fallbackColumns
	}
	out := make([]Column, len(cols))
	copy(out, cols)
	return out
}

// DefaultExportFilename returns "<type>_export_<YYYY-MM-DD>.csv".
func DefaultExportFilename(t entity.Type, ts time.Time) string {
	return fmt.Sprintf("%s_export_%s.csv", t, ts.UTC().Format(time.DateOnly))
}

// Export converts the selected records to rows and hands them to w. An empty
// filename is replaced by DefaultExportFilename. The store is never changed
// and nothing is pushed to the history.
//
// When row construction or the writer fails, the result reports
// EXPORT_FAILED for the whole batch. Nothing is written when no selected
// record exists.
func (e *Engine) Export(store *entity.Store, t entity.Type, ids []string, filename string, w RowWriter) (res Result) {
	var out *entity.Store
	defer e.recoverInto(OpExport, t, ids, store, &out, &res)

	ids, err := e.begin(OpExport, t, ids, false)
	if err != nil {
		return e.structural(OpExport, t, len(ids), err)
	}
	ts := e.clock.Now()
	if filename == "" {
		filename = DefaultExportFilename(t, ts)
	}
	if w == nil {
		return e.structural(OpExport, t, len(ids), &OpError{
			Code:    ErrCodeExportFailed,
			Message: "no row writer configured",
		})
	}

	tl := newTally(false)
	wanted := indexIDs(ids)
	found := make(map[string]struct{}, len(ids))
	var selected []record.Object
	for _, obj := range store.Collection(t) {
		id := obj.ID()
		if _, ok := wanted[id]; !ok {
			continue
		}
		found[id] = struct{}{}
		selected = append(selected, obj)
		tl.succeed(id)
	}
	reportMissing(ids, found, tl)

	meta := Metadata{Filename: filename}
	if len(selected) == 0 {
		return e.commit(OpExport, t, len(ids), tl, nil, meta, ts, false)
	}

	rows, err := buildRows(t, selected)
	if err == nil {
		err = w.WriteRows(filename, rows)
	}
	if err != nil {
		return e.structural(OpExport, t, len(ids), &OpError{
			Code:    ErrCodeExportFailed,
			Message: fmt.Sprintf("export %s: %v", filename, err),
			Err:     err,
		})
	}
	meta.Rows = len(selected)
	return e.commit(OpExport, t, len(ids), tl, nil, meta, ts, false)
}

// buildRows returns the header row followed by one row per record.
func buildRows(t entity.Type, objs []record.Object) ([][]string, error) {
	cols := Columns(t)
	rows := make([][]string, 0, len(objs)+1)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Header
	}
	rows = append(rows, header)

	for _, obj := range objs {
		row := make([]string, len(cols))
		for i, c := range cols {
			if c.Field == "" {
				data, err := record.MarshalCanonical(obj)
				if err != nil {
					return nil, fmt.Errorf("record %s: %w", obj.ID(), err)
				}
				row[i] = string(data)
				continue
			}
			row[i] = record.Text(obj[c.Field])
		}
		rows = append(rows, row)
	}
	return rows, nil
}
