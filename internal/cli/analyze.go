package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/paradox/internal/backend"
	"github.com/roach88/paradox/internal/counts"
	"github.com/roach88/paradox/internal/experiment"
	"github.com/roach88/paradox/internal/stats"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Kind      string
	Counts    string
	Label     string
	Labels    []string
	Name      string
	Bitstring string
	Signal    int
	Cond      int
}

// AnalyzeResult holds one derived statistic's flattened scalars.
type AnalyzeResult struct {
	Kind       string            `json:"kind"`
	Source     string            `json:"source"`
	Labels     []string          `json:"labels"`
	Statistics []StatisticReport `json:"statistics"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Derive one statistic from raw counts",
		Long: `Derive a single statistic from a recorded-counts capture, without a
catalog, a circuit family, or a store. The histogram width is taken from
the longest bitstring key of the chosen circuit.

Kinds and their flags:
  correlator, parity, survival, final_bit, fidelity, pair_share
              --label (defaults to the capture's only circuit)
  outcome     --label, --bitstring <bits> (required)
  conditional --label, --signal <pos>, --cond <pos>; positions count from
              the left of the bitstring
  chsh        --labels A0B0,A0B1,A1B0,A1B1: four setting-pair circuits in
              order, the last entering the combination negated

Exit codes:
  0 - Statistic derived (undefined values still print)
  2 - Command error (unknown kind, missing circuit, bad flags)

Examples:
  paradox analyze --kind correlator --counts capture.yaml --label A0B0
  paradox analyze --kind chsh --counts capture.yaml --labels A0B0,A0B1,A1B0,A1B1
  paradox analyze --kind conditional --counts eraser.yaml --label eraser --signal 1 --cond 0
  paradox analyze --kind outcome --counts hardy.yaml --label XX --bitstring 11`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "statistic kind (required)")
	_ = cmd.MarkFlagRequired("kind")
	cmd.Flags().StringVar(&opts.Counts, "counts", "", "recorded counts YAML (required)")
	_ = cmd.MarkFlagRequired("counts")
	cmd.Flags().StringVar(&opts.Label, "label", "", "circuit label to analyze")
	cmd.Flags().StringSliceVar(&opts.Labels, "labels", nil, "four circuit labels for the chsh combination")
	cmd.Flags().StringVar(&opts.Name, "name", "", "statistic name (default: the label, or S for chsh)")
	cmd.Flags().StringVar(&opts.Bitstring, "bitstring", "", "designated outcome for the outcome kind")
	cmd.Flags().IntVar(&opts.Signal, "signal", 1, "signal bit position for the conditional kind")
	cmd.Flags().IntVar(&opts.Cond, "cond", 0, "conditioning bit position for the conditional kind")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	kind := experiment.StatKind(opts.Kind)
	if !knownStatKind(kind) {
		msg := fmt.Sprintf("unknown kind %q (want one of: %s)", opts.Kind, strings.Join(statKindNames(), ", "))
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if kind == experiment.StatOutcome && opts.Bitstring == "" {
		msg := "--bitstring is required for the outcome kind"
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	rec, err := backend.LoadRecorded(opts.Counts)
	if err != nil {
		_ = formatter.Error(ErrCodeParse, fmt.Sprintf("failed to load counts: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to load counts", err)
	}
	results := rec.Results()

	labels, err := analyzeLabels(kind, opts, results)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "bad label selection", err)
	}

	hists := make(map[string]counts.Histogram, len(labels))
	for _, label := range labels {
		m, ok := results[label]
		if !ok {
			msg := fmt.Sprintf("no circuit %q in %s (have: %s)",
				label, opts.Counts, strings.Join(resultLabels(results), ", "))
			_ = formatter.Error(ErrCodeNotFound, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		h, err := histogramFromCounts(m)
		if err != nil {
			_ = formatter.Error(ErrCodeParse, fmt.Sprintf("circuit %q: %v", label, err), nil)
			return WrapExitError(ExitCommandError, "bad histogram", err)
		}
		hists[label] = h
	}

	name := opts.Name
	if name == "" {
		if kind == experiment.StatCHSH {
			name = "S"
		} else {
			name = labels[0]
		}
	}

	plan := experiment.StatPlan{
		Kind:      kind,
		Name:      name,
		Labels:    labels,
		Bitstring: opts.Bitstring,
		Signal:    opts.Signal,
		Cond:      opts.Cond,
	}
	stat, err := stats.FromPlan(plan, hists)
	if err != nil {
		_ = formatter.Error(ErrCodePipeline, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot derive statistic", err)
	}

	result := &AnalyzeResult{
		Kind:       string(kind),
		Source:     opts.Counts,
		Labels:     labels,
		Statistics: scalarReports(stats.Flatten([]stats.Statistic{stat})),
	}
	return outputAnalyze(formatter, result)
}

// analyzeLabels resolves which circuit labels the statistic consumes.
func analyzeLabels(kind experiment.StatKind, opts *AnalyzeOptions, results map[string]map[string]int) ([]string, error) {
	if kind == experiment.StatCHSH {
		if len(opts.Labels) != 4 {
			return nil, fmt.Errorf("chsh needs exactly 4 --labels, got %d", len(opts.Labels))
		}
		return opts.Labels, nil
	}
	if opts.Label != "" {
		return []string{opts.Label}, nil
	}
	if len(results) == 1 {
		for label := range results {
			return []string{label}, nil
		}
	}
	return nil, fmt.Errorf("capture holds %d circuits; pick one with --label (have: %s)",
		len(results), strings.Join(resultLabels(results), ", "))
}

// histogramFromCounts builds a histogram from a raw capture entry. The
// width is the longest key; shorter keys are left-padded by the histogram.
func histogramFromCounts(m map[string]int) (counts.Histogram, error) {
	width := 1
	total := 0
	for key, n := range m {
		if len(key) > width {
			width = len(key)
		}
		total += n
	}
	return counts.New(width, total, m)
}

func resultLabels(results map[string]map[string]int) []string {
	labels := make([]string, 0, len(results))
	for label := range results {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// statKindNames lists every statistic kind the engine can derive.
func statKindNames() []string {
	kinds := []experiment.StatKind{
		experiment.StatCorrelator, experiment.StatCHSH, experiment.StatParity,
		experiment.StatPairShare, experiment.StatSurvival, experiment.StatFinalBit,
		experiment.StatFidelity, experiment.StatOutcome, experiment.StatConditional,
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

func knownStatKind(kind experiment.StatKind) bool {
	for _, name := range statKindNames() {
		if string(kind) == name {
			return true
		}
	}
	return false
}

// outputAnalyze prints the flattened scalars of one statistic.
func outputAnalyze(formatter *OutputFormatter, result *AnalyzeResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Analyzed %s over %s (%s)\n\n",
		result.Kind, strings.Join(result.Labels, ", "), result.Source)
	for _, sr := range result.Statistics {
		if !sr.Defined {
			fmt.Fprintf(w, "  %-24s %12s\n", sr.Name, "undefined")
			continue
		}
		fmt.Fprintf(w, "  %-24s %12.6f\n", sr.Name, sr.Value)
	}
	return nil
}
