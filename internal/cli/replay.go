package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/paradox/internal/backend"
	"github.com/roach88/paradox/internal/runner"
	"github.com/roach88/paradox/internal/store"
	"github.com/roach88/paradox/internal/verdict"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Catalog  string
}

// ReplayRunResult holds the replay outcome for one stored run.
type ReplayRunResult struct {
	RunID       string              `json:"run_id"`
	Experiment  string              `json:"experiment"`
	Clean       bool                `json:"clean"`
	Verdict     verdict.Verdict     `json:"verdict"`
	Divergences []runner.Divergence `json:"divergences,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Recompute a stored run and verify it reproduces",
		Long: `Re-derive statistics, predictions, and verdict for a stored run from its
persisted histograms and compare them against the stored rows.

The pipeline from histogram to verdict is deterministic, so a clean replay
matches bit for bit. Divergence means the code changed since the run was
written, the catalog changed under the run's name, or the rows were edited.

Exit codes:
  0 - Replay reproduced the stored run exactly
  1 - Replay diverged from the stored rows
  2 - Command error (unknown run ID, database or catalog unreadable)

Examples:
  paradox replay 0198c0ff-1b2d-7e01-a000-000000000000 --db runs.db
  paradox replay <run-id> --db runs.db --catalog custom.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "catalog CUE file (default: embedded catalog)")

	return cmd
}

func runReplay(opts *ReplayOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cat, err := loadCatalog(opts.Catalog)
	if err != nil {
		_ = formatter.Error(ErrCodeParse, fmt.Sprintf("failed to load catalog: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to load catalog", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// The replay backend never submits anything; Replay recomputes from
	// the persisted histograms.
	r := runner.New(backend.NewRecorded("replay", "", nil),
		runner.WithStore(st),
		runner.WithCatalogHash(cat.Hash),
	)
	report, err := r.Replay(ctx, runID, cat)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			msg := fmt.Sprintf("run %q not found", runID)
			_ = formatter.Error(ErrCodeNotFound, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	result := &ReplayRunResult{
		RunID:       report.Run.ID,
		Experiment:  report.Run.Name,
		Clean:       report.Clean(),
		Verdict:     report.Verdict,
		Divergences: report.Divergences,
	}

	if formatter.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// outputReplayJSON emits the replay result; a diverged replay carries an
// error envelope and exit code 1.
func outputReplayJSON(formatter *OutputFormatter, result *ReplayRunResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if !result.Clean {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeDiverged,
			Message: fmt.Sprintf("replay diverged in %d field(s)", len(result.Divergences)),
		}
	}

	if err := encodeIndented(formatter.Writer, response); err != nil {
		return err
	}

	if !result.Clean {
		return NewExitError(ExitFailure, "replay diverged from the stored run")
	}
	return nil
}

// outputReplayText renders the replay result as text.
func outputReplayText(formatter *OutputFormatter, result *ReplayRunResult) error {
	w := formatter.Writer

	if result.Clean {
		fmt.Fprintf(w, "✓ Run %s replayed clean\n", result.RunID)
		fmt.Fprintf(w, "  %s: %s (deviation %.4f)\n",
			result.Experiment, result.Verdict.Status, result.Verdict.Deviation)
		return nil
	}

	fmt.Fprintf(w, "✗ Run %s diverged in %d field(s)\n", result.RunID, len(result.Divergences))
	for _, d := range result.Divergences {
		fmt.Fprintf(w, "  %s: stored %s, recomputed %s\n", d.Field, d.Stored, d.Recomputed)
	}

	return NewExitError(ExitFailure, "replay diverged from the stored run")
}
