// Package csvexport writes export rows as CSV files into a directory.
//
// Writer implements engine.RowWriter. Each file is written to a temporary
// name first and renamed into place, so a failed export never leaves a
// partial file behind.
package csvexport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidFilename is returned for names that are empty or would escape
// the export directory.
var ErrInvalidFilename = errors.New("invalid export filename")

// Writer writes CSV files into one directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// New creates a Writer for dir. The directory is created on first write.
// A nil logger means slog.Default().
func New(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, logger: logger}
}

// Dir returns the export directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Path returns where filename would be written.
func (w *Writer) Path(filename string) string {
	return filepath.Join(w.dir, filename)
}

// WriteRows writes rows to dir/filename, replacing any existing file.
func (w *Writer) WriteRows(filename string, rows [][]string) error {
	if err := checkFilename(filename); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, "."+filename+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := Encode(tmp, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	target := w.Path(filename)
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("rename %s: %w", target, err)
	}
	w.logger.Info("export written", "path", target, "rows", len(rows))
	return nil
}

// Encode writes rows as CSV with LF line endings.
func Encode(out io.Writer, rows [][]string) error {
	cw := csv.NewWriter(out)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	return nil
}

func checkFilename(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	if filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q must not contain a path", ErrInvalidFilename, name)
	}
	return nil
}
