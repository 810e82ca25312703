package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/paradox/internal/query"
	"github.com/roach88/paradox/internal/querysql"
	"github.com/roach88/paradox/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	Name     string
	Family   string
	Verdict  string
	Backend  string
	Since    string
	Until    string
}

// RunSummary is one stored run in CLI output shape.
type RunSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Family      string  `json:"family"`
	Backend     string  `json:"backend"`
	Shots       int     `json:"shots"`
	CatalogHash string  `json:"catalog_hash"`
	CreatedAt   string  `json:"created_at"`
	Verdict     string  `json:"verdict"`
	Deviation   float64 `json:"deviation"`
	Reason      string  `json:"reason"`
}

// RunsResult holds the matched runs.
type RunsResult struct {
	Runs  []RunSummary `json:"runs"`
	Total int          `json:"total"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Query stored runs",
		Long: `List stored runs, optionally filtered. Filters combine with AND; the
time window is half-open (--since inclusive, --until exclusive), so
adjacent windows never double-count a run. Results come back in run ID
order, which for UUIDv7 IDs is creation order.

Exit codes:
  0 - Query executed (zero matches included)
  1 - Query execution failed
  2 - Command error (bad timestamp, unreadable database)

Examples:
  paradox runs --db runs.db
  paradox runs --db runs.db --family chsh --verdict violation-confirmed
  paradox runs --db runs.db --since 2025-06-01T00:00:00Z --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Name, "name", "", "filter by experiment name")
	cmd.Flags().StringVar(&opts.Family, "family", "", "filter by family")
	cmd.Flags().StringVar(&opts.Verdict, "verdict", "", "filter by verdict status")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "filter by backend name")
	cmd.Flags().StringVar(&opts.Since, "since", "", "runs created at or after this RFC3339 time")
	cmd.Flags().StringVar(&opts.Until, "until", "", "runs created strictly before this RFC3339 time")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	filter, err := buildRunsFilter(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "bad filter", err)
	}

	sqlQuery, args, err := querysql.Compile(filter)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("compile query: %v", err), nil)
		return WrapExitError(ExitFailure, "compile query", err)
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

	runs, err := st.ListRuns(ctx, sqlQuery, args...)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "list runs", err)
	}

	result := &RunsResult{Runs: make([]RunSummary, len(runs)), Total: len(runs)}
	for i, run := range runs {
		result.Runs[i] = runSummary(run)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputRunsText(formatter, result)
}

// buildRunsFilter assembles the query filter from the set flags.
func buildRunsFilter(opts *RunsOptions) (query.Filter, error) {
	var filters []query.Filter
	for _, eq := range []struct{ field, value string }{
		{"name", opts.Name},
		{"family", opts.Family},
		{"verdict", opts.Verdict},
		{"backend", opts.Backend},
	} {
		if eq.value != "" {
			filters = append(filters, query.Equals{Field: eq.field, Value: eq.value})
		}
	}
	if opts.Since != "" {
		t, err := time.Parse(time.RFC3339, opts.Since)
		if err != nil {
			return nil, fmt.Errorf("--since: %w", err)
		}
		filters = append(filters, query.Since{T: t})
	}
	if opts.Until != "" {
		t, err := time.Parse(time.RFC3339, opts.Until)
		if err != nil {
			return nil, fmt.Errorf("--until: %w", err)
		}
		filters = append(filters, query.Until{T: t})
	}
	return query.And{Filters: filters}, nil
}

func runSummary(run store.Run) RunSummary {
	return RunSummary{
		ID:          run.ID,
		Name:        run.Name,
		Family:      run.Family,
		Backend:     run.Backend,
		Shots:       run.Shots,
		CatalogHash: run.CatalogHash,
		CreatedAt:   run.CreatedAt.UTC().Format(time.RFC3339),
		Verdict:     run.Verdict,
		Deviation:   run.Deviation,
		Reason:      run.Reason,
	}
}

// outputRunsText renders the matched runs as a table.
func outputRunsText(formatter *OutputFormatter, result *RunsResult) error {
	w := formatter.Writer

	if result.Total == 0 {
		fmt.Fprintln(w, "No runs matched.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-14s  %-11s  %-21s  %s\n", "ID", "NAME", "FAMILY", "VERDICT", "CREATED")
	for _, run := range result.Runs {
		fmt.Fprintf(w, "%-36s  %-14s  %-11s  %-21s  %s\n",
			run.ID, run.Name, run.Family, run.Verdict, run.CreatedAt)
	}
	fmt.Fprintf(w, "\n%d run(s)\n", result.Total)

	return nil
}
