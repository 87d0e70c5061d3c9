package cli

import (
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/csvexport"
	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/plan"
	"github.com/roach88/rollcall/internal/schema"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	DocumentOptions
	Schema string
	Out    string

	// IDGenerator overrides the duplicate id source (for testing).
	IDGenerator engine.IDGenerator
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{DocumentOptions: DocumentOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "apply <plan.yaml>",
		Short: "Run a batch plan against a saved document",
		Long: `Run every step of a batch plan against the document named by --name and
save the resulting store. Steps with validate: true are checked against the
CUE schema given by --schema; export steps write into --out.

Exits with status 1 when any step expectation is not met.

Example:
  rollcall apply --db ./school.db --name fall --schema school.cue --out ./exports term.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, opts, args[0])
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema for validate steps")
	cmd.Flags().StringVar(&opts.Out, "out", "", "directory for export steps")

	return cmd
}

func runApply(cmd *cobra.Command, opts *ApplyOptions, planPath string) error {
	f := opts.formatter(cmd)
	logger := opts.newLogger(cmd.ErrOrStderr())

	p, err := plan.Load(planPath)
	if err != nil {
		return f.Fail(ExitCommandError, CodePlan, "failed to load plan", err)
	}

	runnerOpts := []plan.RunnerOption{plan.WithLogger(logger)}
	if opts.Schema != "" {
		s, err := schema.Load(opts.Schema)
		if err != nil {
			return f.Fail(ExitCommandError, CodeSchema, "failed to load schema", err)
		}
		runnerOpts = append(runnerOpts, plan.WithSchema(s))
	}
	if opts.Out != "" {
		runnerOpts = append(runnerOpts, plan.WithRowWriter(csvexport.New(opts.Out, logger)))
	}

	db, err := openDatabase(f, opts.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	doc, err := db.LoadDocument(ctx, opts.Name)
	if err != nil {
		return f.Fail(ExitCommandError, CodeDatabase, "failed to load document", err)
	}

	reg := prometheus.NewRegistry()
	engineOpts := []engine.EngineOption{
		engine.WithLogger(logger),
		engine.WithMetrics(engine.NewMetrics(reg)),
	}
	if opts.IDGenerator != nil {
		engineOpts = append(engineOpts, engine.WithIDGenerator(opts.IDGenerator))
	}

	out, err := plan.NewRunner(engine.New(engineOpts...), runnerOpts...).Run(doc, p)
	if err != nil {
		return f.Fail(ExitCommandError, CodePlan, "failed to run plan", err)
	}

	if out.Store != doc {
		if err := db.SaveDocument(ctx, opts.Name, out.Store, time.Now().UTC()); err != nil {
			return f.Fail(ExitCommandError, CodeDatabase, "failed to save document", err)
		}
	}
	logMetrics(logger, reg)

	if err := f.Success(out, func(w io.Writer) error {
		return plan.WriteReport(w, out)
	}); err != nil {
		return err
	}
	if !out.Pass {
		return NewExitError(ExitFailure, "plan expectations not met")
	}
	return nil
}

// logMetrics writes the collected engine metrics at debug level.
func logMetrics(logger *slog.Logger, reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		logger.Warn("gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"metric", mf.GetName()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				attrs = append(attrs, "value", m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				attrs = append(attrs, "value", m.GetGauge().GetValue())
			}
			logger.Debug("engine metric", attrs...)
		}
	}
}
