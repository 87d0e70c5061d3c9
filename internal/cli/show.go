package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DocumentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a saved document's version and collection counts",
		Example: `  rollcall show --db ./school.db --name fall
  rollcall show --db ./school.db --name fall --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			db, err := openDatabase(f, opts.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			info, err := db.Describe(cmd.Context(), opts.Name)
			if err != nil {
				return f.Fail(ExitCommandError, CodeDatabase, "failed to describe document", err)
			}
			return f.Success(info, func(w io.Writer) error {
				return renderInfo(w, info)
			})
		},
	}
	opts.bind(cmd)

	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List saved documents",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			db, err := openDatabase(f, database)
			if err != nil {
				return err
			}
			defer db.Close()

			docs, err := db.ListDocuments(cmd.Context())
			if err != nil {
				return f.Fail(ExitCommandError, CodeDatabase, "failed to list documents", err)
			}
			return f.Success(docs, func(w io.Writer) error {
				for _, d := range docs {
					total := 0
					for _, c := range d.Collections {
						total += c.Count
					}
					if _, err := fmt.Fprintf(w, "%s\tversion %d\t%d records\n", d.Name, d.Version, total); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DocumentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "remove",
		Short:         "Remove a saved document",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			db, err := openDatabase(f, opts.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteDocument(cmd.Context(), opts.Name); err != nil {
				return f.Fail(ExitCommandError, CodeDatabase, "failed to remove document", err)
			}
			return f.Success(map[string]string{"removed": opts.Name}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "removed %s\n", opts.Name)
				return err
			})
		},
	}
	opts.bind(cmd)

	return cmd
}
