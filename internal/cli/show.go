package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/paradox/internal/counts"
	"github.com/roach88/paradox/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
}

// CircuitSummary is one stored circuit in CLI output shape.
type CircuitSummary struct {
	Position int    `json:"position"`
	Label    string `json:"label"`
	Qubits   int    `json:"qubits"`
	Clbits   int    `json:"clbits"`
	Hash     string `json:"hash"`
}

// HistogramSummary is one decoded histogram in CLI output shape.
type HistogramSummary struct {
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
}

// ShowResult is the full detail of one stored run.
type ShowResult struct {
	Run        RunSummary                  `json:"run"`
	Circuits   []CircuitSummary            `json:"circuits"`
	Histograms map[string]HistogramSummary `json:"histograms"`
	Statistics []StatisticReport           `json:"statistics"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the full detail of one stored run",
		Long: `Print everything persisted for one run: the run row, its circuits, the
decoded histograms, and the flattened statistics in plan order.

Exit codes:
  0 - Run found and printed
  1 - Reading the run's rows failed partway
  2 - Command error (unknown run ID, unreadable database)

Examples:
  paradox show 0198c0ff-1b2d-7e01-a000-000000000000 --db runs.db
  paradox show <run-id> --db runs.db --format json
  paradox show <run-id> --db runs.db --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(opts *ShowOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
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

	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			msg := fmt.Sprintf("run %q not found", runID)
			_ = formatter.Error(ErrCodeNotFound, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read run", err)
	}

	circuits, err := st.ReadRunCircuits(ctx, run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "read circuits", err)
	}
	hists, err := st.ReadHistograms(ctx, run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "read histograms", err)
	}
	statistics, err := st.ReadStatistics(ctx, run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "read statistics", err)
	}

	result := &ShowResult{
		Run:        runSummary(run),
		Circuits:   make([]CircuitSummary, len(circuits)),
		Histograms: make(map[string]HistogramSummary, len(hists)),
		Statistics: make([]StatisticReport, len(statistics)),
	}
	for i, c := range circuits {
		result.Circuits[i] = CircuitSummary{
			Position: c.Position,
			Label:    c.Label,
			Qubits:   c.Qubits,
			Clbits:   c.Clbits,
			Hash:     c.Hash,
		}
	}
	for label, h := range hists {
		result.Histograms[label] = histogramSummary(h)
	}
	for i, row := range statistics {
		result.Statistics[i] = StatisticReport{
			Name:    row.Name,
			Kind:    row.Kind,
			Value:   row.Value,
			Defined: row.Defined,
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputShowText(formatter, result)
}

func histogramSummary(h counts.Histogram) HistogramSummary {
	m := make(map[string]int, len(h.Keys()))
	for _, key := range h.Keys() {
		m[key] = h.Count(key)
	}
	return HistogramSummary{Total: h.Total(), Counts: m}
}

// outputShowText renders one run's detail as sectioned text. Histogram
// keys print only with --verbose; the default keeps wide sweeps readable.
func outputShowText(formatter *OutputFormatter, result *ShowResult) error {
	w := formatter.Writer
	run := result.Run

	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "  Experiment: %s (family %s)\n", run.Name, run.Family)
	fmt.Fprintf(w, "  Backend:    %s, %d shots\n", run.Backend, run.Shots)
	fmt.Fprintf(w, "  Created:    %s\n", run.CreatedAt)
	fmt.Fprintf(w, "  Catalog:    %s\n", shortHash(run.CatalogHash))
	fmt.Fprintf(w, "  Verdict:    %s (deviation %.4f)\n", run.Verdict, run.Deviation)
	fmt.Fprintf(w, "  Reason:     %s\n\n", run.Reason)

	fmt.Fprintln(w, "Circuits:")
	for _, c := range result.Circuits {
		fmt.Fprintf(w, "  %2d  %-16s %d qubits, %d clbits  (hash %s)\n",
			c.Position, c.Label, c.Qubits, c.Clbits, shortHash(c.Hash))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Histograms:")
	labels := make([]string, 0, len(result.Histograms))
	for label := range result.Histograms {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		h := result.Histograms[label]
		fmt.Fprintf(w, "  %-16s %d shots over %d outcome(s)\n", label, h.Total, len(h.Counts))
		if formatter.Verbose {
			keys := make([]string, 0, len(h.Counts))
			for key := range h.Counts {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(w, "    %s: %d\n", key, h.Counts[key])
			}
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Statistics:")
	for _, sr := range result.Statistics {
		if !sr.Defined {
			fmt.Fprintf(w, "  %-24s %-12s %12s\n", sr.Name, sr.Kind, "undefined")
			continue
		}
		fmt.Fprintf(w, "  %-24s %-12s %12.6f\n", sr.Name, sr.Kind, sr.Value)
	}

	return nil
}

// shortHash truncates a content hash for display.
func shortHash(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12] + "…"
}
