package cli

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/entity"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DocumentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Save a JSON store document to the database",
		Long: `Read a store document ({"students":[...],"goals":[...],"version":N,...})
and save it under --name, replacing any document of that name.

Example:
  rollcall import --db ./school.db --name fall ./fall.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args[0])
		},
	}
	opts.bind(cmd)

	return cmd
}

func runImport(cmd *cobra.Command, opts *DocumentOptions, path string) error {
	f := opts.formatter(cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return f.Fail(ExitCommandError, CodeInput, "failed to read document", err)
	}
	var doc entity.Store
	if err := json.Unmarshal(data, &doc); err != nil {
		return f.Fail(ExitCommandError, CodeInput, "failed to decode document", err)
	}

	db, err := openDatabase(f, opts.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if err := db.SaveDocument(ctx, opts.Name, &doc, time.Now().UTC()); err != nil {
		return f.Fail(ExitCommandError, CodeDatabase, "failed to save document", err)
	}
	info, err := db.Describe(ctx, opts.Name)
	if err != nil {
		return f.Fail(ExitCommandError, CodeDatabase, "failed to describe document", err)
	}
	return f.Success(info, func(w io.Writer) error {
		return renderInfo(w, info)
	})
}
