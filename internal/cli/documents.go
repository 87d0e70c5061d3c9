package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/sqlitestore"
)

// DocumentOptions are the flags shared by commands that address one saved
// document.
type DocumentOptions struct {
	*RootOptions
	Database string
	Name     string
}

func (o *DocumentOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&o.Name, "name", "", "document name (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("name")
}

// openDatabase opens the database or reports the failure.
func openDatabase(f *OutputFormatter, path string) (*sqlitestore.Store, error) {
	db, err := sqlitestore.Open(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, CodeDatabase, "failed to open database", err)
	}
	return db, nil
}

// renderInfo prints a document summary followed by per-collection counts.
func renderInfo(w io.Writer, info sqlitestore.DocumentInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "document:\t%s\n", info.Name)
	fmt.Fprintf(tw, "version:\t%d\n", info.Version)
	if !info.LastUpdated.IsZero() {
		fmt.Fprintf(tw, "last updated:\t%s\n", entity.FormatTimestamp(info.LastUpdated))
	}
	fmt.Fprintf(tw, "saved at:\t%s\n", entity.FormatTimestamp(info.SavedAt))
	for _, c := range info.Collections {
		fmt.Fprintf(tw, "  %s\t%d\n", c.Type, c.Count)
	}
	return tw.Flush()
}
