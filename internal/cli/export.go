package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/csvexport"
	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/plan"
	"github.com/roach88/rollcall/internal/selection"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	DocumentOptions
	Entity string
	IDs    []string
	Out    string
}

// exportReport is the JSON payload of a finished export.
type exportReport struct {
	Result engine.Result `json:"result"`
	Path   string        `json:"path,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{DocumentOptions: DocumentOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "export [file.csv]",
		Short: "Export records of one collection as CSV",
		Long: `Write the records of --entity (all of them, or those listed in --ids) as a
CSV file in --out. Without a file name, <entity>_export_<date>.csv is used.

Example:
  rollcall export --db ./school.db --name fall --entity goals --out ./exports
  rollcall export --db ./school.db --name fall --entity students --ids s1,s2 roster.csv`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := ""
			if len(args) == 1 {
				filename = args[0]
			}
			return runExport(cmd, opts, filename)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "entity type to export (required)")
	cmd.Flags().StringSliceVar(&opts.IDs, "ids", nil, "record ids (default: all)")
	cmd.Flags().StringVar(&opts.Out, "out", ".", "output directory")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions, filename string) error {
	f := opts.formatter(cmd)
	logger := opts.newLogger(cmd.ErrOrStderr())

	t, err := entity.Parse(opts.Entity)
	if err != nil {
		return f.Fail(ExitCommandError, CodeInput, "invalid --entity", err)
	}

	db, err := openDatabase(f, opts.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	doc, err := db.LoadDocument(cmd.Context(), opts.Name)
	if err != nil {
		return f.Fail(ExitCommandError, CodeDatabase, "failed to load document", err)
	}

	ids := opts.IDs
	if len(ids) == 0 {
		ids = selection.All(doc.IDs(t))
	}

	w := csvexport.New(opts.Out, logger)
	res := engine.New(engine.WithLogger(logger)).Export(doc, t, ids, filename, w)

	report := exportReport{Result: res}
	if res.Metadata.Rows > 0 {
		report.Path = w.Path(res.Metadata.Filename)
	}
	if err := f.Success(report, func(out io.Writer) error {
		if _, err := fmt.Fprintln(out, plan.ResultLine(res)); err != nil {
			return err
		}
		for _, item := range res.Errors {
			if _, err := fmt.Fprintf(out, "   %s %s: %s\n", item.ID, item.Code, item.Error); err != nil {
				return err
			}
		}
		if report.Path != "" {
			_, err := fmt.Fprintf(out, "wrote %d rows to %s\n", res.Metadata.Rows, report.Path)
			return err
		}
		return nil
	}); err != nil {
		return err
	}
	if !res.Success {
		return NewExitError(ExitFailure, "export incomplete")
	}
	return nil
}
