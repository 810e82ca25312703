package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/paradox/internal/backend"
	"github.com/roach88/paradox/internal/predict"
	"github.com/roach88/paradox/internal/runner"
	"github.com/roach88/paradox/internal/stats"
	"github.com/roach88/paradox/internal/store"
	"github.com/roach88/paradox/internal/verdict"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Counts   string
	Catalog  string
	Database string
	NoStore  bool
	Shots    int
}

// StatisticReport is one flattened statistic in CLI output shape.
type StatisticReport struct {
	Name    string  `json:"name"`
	Kind    string  `json:"kind"`
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// PredictionReport is one theoretical reference value.
type PredictionReport struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Note  string  `json:"note,omitempty"`
}

// RunReport is the printed outcome of one pipeline run.
type RunReport struct {
	RunID       string             `json:"run_id"`
	Experiment  string             `json:"experiment"`
	Family      string             `json:"family"`
	Shots       int                `json:"shots"`
	Backend     string             `json:"backend"`
	Qubits      int                `json:"qubits"`
	CreatedAt   time.Time          `json:"created_at"`
	Statistics  []StatisticReport  `json:"statistics"`
	Predictions []PredictionReport `json:"predictions"`
	Verdict     verdict.Verdict    `json:"verdict"`
	Persisted   bool               `json:"persisted"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <experiment>",
		Short: "Run one experiment against recorded counts",
		Long: `Run the full pipeline for one catalog experiment: generate the circuit
family, replay the recorded counts through the backend, decode histograms,
evaluate the family's statistics, derive theoretical predictions, and
classify the verdict.

The counts file is a YAML capture mapping circuit labels to bitstring
histograms. Without --db the outcome is printed and discarded; --no-store
states that intent explicitly.

Exit codes:
  0 - Run completed (any verdict)
  1 - Pipeline failure (no counts for a circuit, store write failed)
  2 - Command error (unknown experiment, unreadable files, bad flags)

Examples:
  paradox run chsh --counts captures/chsh.yaml --db runs.db
  paradox run zeno --counts zeno.yaml --shots 8192 --no-store
  paradox run ghz --counts ghz.yaml --catalog custom.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Counts, "counts", "", "recorded counts YAML (required)")
	_ = cmd.MarkFlagRequired("counts")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "catalog CUE file (default: embedded catalog)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database to persist the run into")
	cmd.Flags().BoolVar(&opts.NoStore, "no-store", false, "evaluate without persisting")
	cmd.Flags().IntVar(&opts.Shots, "shots", 0, "override the catalog shot count")

	return cmd
}

func runRun(opts *RunOptions, name string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Pipeline logging goes to stderr so JSON output stays parseable.
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	if opts.Database != "" && opts.NoStore {
		return NewExitError(ExitCommandError, "--db and --no-store are mutually exclusive")
	}
	if cmd.Flags().Changed("shots") && opts.Shots < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--shots must be positive, got %d", opts.Shots))
	}

	cat, err := loadCatalog(opts.Catalog)
	if err != nil {
		_ = formatter.Error(ErrCodeParse, fmt.Sprintf("failed to load catalog: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to load catalog", err)
	}

	cfg, ok := cat.Lookup(name)
	if !ok {
		msg := fmt.Sprintf("experiment %q is not in the catalog (have: %s)",
			name, strings.Join(cat.Names(), ", "))
		_ = formatter.Error(ErrCodeCatalog, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if opts.Shots > 0 {
		cfg.Shots = opts.Shots
	}

	rec, err := backend.LoadRecorded(opts.Counts)
	if err != nil {
		_ = formatter.Error(ErrCodeParse, fmt.Sprintf("failed to load counts: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to load counts", err)
	}

	ropts := []runner.Option{
		runner.WithCatalogHash(cat.Hash),
		runner.WithLogger(logger),
	}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		ropts = append(ropts, runner.WithStore(st))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	outcome, err := runner.New(rec, ropts...).Run(ctx, cfg)
	if err != nil {
		// Config problems are usage errors; anything past validation is an
		// operation failure.
		exit := ExitFailure
		if runner.IsConfigError(err) {
			exit = ExitCommandError
		}
		_ = formatter.Error(ErrCodePipeline, err.Error(), nil)
		return WrapExitError(exit, "run failed", err)
	}

	return outputRun(formatter, buildRunReport(outcome), opts.Database)
}

// buildRunReport lowers a pipeline outcome to the printed shape.
func buildRunReport(outcome *runner.Outcome) *RunReport {
	return &RunReport{
		RunID:       outcome.RunID,
		Experiment:  outcome.Config.Name,
		Family:      string(outcome.Config.Family),
		Shots:       outcome.Config.Shots,
		Backend:     outcome.Backend.Name,
		Qubits:      outcome.Backend.Qubits,
		CreatedAt:   outcome.CreatedAt,
		Statistics:  scalarReports(stats.Flatten(outcome.Statistics)),
		Predictions: predictionReports(outcome.Predictions),
		Verdict:     outcome.Verdict,
		Persisted:   outcome.Persisted,
	}
}

func scalarReports(scalars []stats.Scalar) []StatisticReport {
	reports := make([]StatisticReport, len(scalars))
	for i, sc := range scalars {
		reports[i] = StatisticReport{
			Name:    sc.Name,
			Kind:    string(sc.Kind),
			Value:   sc.Value,
			Defined: sc.Defined,
		}
	}
	return reports
}

func predictionReports(preds []predict.Prediction) []PredictionReport {
	reports := make([]PredictionReport, len(preds))
	for i, p := range preds {
		reports[i] = PredictionReport{Name: p.Name, Value: p.Value, Note: p.Note}
	}
	return reports
}

// outputRun prints one run report.
func outputRun(formatter *OutputFormatter, report *RunReport, database string) error {
	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	w := formatter.Writer

	fmt.Fprintf(w, "Run %s: %s (family %s, %d shots on %s)\n\n",
		report.RunID, report.Experiment, report.Family, report.Shots, report.Backend)

	fmt.Fprintln(w, "Statistics:")
	for _, sr := range report.Statistics {
		if !sr.Defined {
			fmt.Fprintf(w, "  %-24s %-12s %12s\n", sr.Name, sr.Kind, "undefined")
			continue
		}
		fmt.Fprintf(w, "  %-24s %-12s %12.6f\n", sr.Name, sr.Kind, sr.Value)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Predictions:")
	for _, pr := range report.Predictions {
		fmt.Fprintf(w, "  %-24s %12.6f\n", pr.Name, pr.Value)
		if formatter.Verbose && pr.Note != "" {
			fmt.Fprintf(w, "  %-24s   %s\n", "", pr.Note)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Verdict: %s (deviation %.4f)\n", report.Verdict.Status, report.Verdict.Deviation)
	fmt.Fprintf(w, "  %s\n", report.Verdict.Reason)

	if report.Persisted {
		fmt.Fprintf(w, "Persisted to %s\n", database)
	} else {
		fmt.Fprintln(w, "Not persisted (pass --db to keep this run)")
	}

	return nil
}
