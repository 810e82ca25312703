package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/paradox/internal/catalog"
	"github.com/roach88/paradox/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Catalog      string
	UpdateGolden bool
	Filter       string
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
	Uncovered []string         `json:"uncovered,omitempty"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario.yaml|dir ...>",
		Short: "Run scenario files through the harness",
		Long: `Run scenario files through the conformance harness: each scenario feeds
its recorded counts through the full pipeline against a fresh in-memory
store and checks the expected verdict, deviation, and statistics.

A scenario with a golden file at <dir>/golden/<name>.golden is also
compared against it line by line; --update-golden rewrites the golden
files from the current traces. Catalog experiments no scenario covers are
reported as warnings on stderr.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (unreadable paths, bad catalog)

Examples:
  paradox test scenarios/
  paradox test scenarios/chsh.yaml scenarios/ghz.yaml
  paradox test scenarios/ --filter "cat*" --update-golden
  paradox test scenarios/ --catalog custom.cue --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "catalog CUE file (default: embedded catalog)")
	cmd.Flags().BoolVar(&opts.UpdateGolden, "update-golden", false, "rewrite golden files from current traces")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the file name")

	return cmd
}

func runTests(opts *TestOptions, args []string, cmd *cobra.Command) error {
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

	files, err := collectScenarioFiles(args, opts.Filter)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to collect scenarios", err)
	}

	if len(files) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(formatter, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	var loaded []*harness.Scenario

	for _, file := range files {
		scenResult, scenario := runScenarioFile(file, cat, opts, cmd)
		result.Scenarios = append(result.Scenarios, scenResult)
		if scenario != nil {
			loaded = append(loaded, scenario)
		}
		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	result.Uncovered = harness.CheckCoverage(loaded, cat)
	if opts.Format != "json" {
		for _, name := range result.Uncovered {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: no scenario covers %s\n", name)
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, result)
}

// collectScenarioFiles expands the argument list: files are taken as-is,
// directories are walked for .yaml/.yml files. The filter globs against
// the file name without extension.
func collectScenarioFiles(args []string, filter string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("scenario path %s: %v", arg, err)
		}

		if !info.IsDir() {
			ok, err := matchesFilter(arg, filter)
			if err != nil {
				return nil, err
			}
			if ok {
				files = append(files, arg)
			}
			continue
		}

		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			ext := filepath.Ext(path)
			if ext != ".yaml" && ext != ".yml" {
				return nil
			}
			ok, err := matchesFilter(path, filter)
			if err != nil {
				return err
			}
			if ok {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func matchesFilter(path, filter string) (bool, error) {
	if filter == "" {
		return true, nil
	}
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	matched, err := filepath.Match(filter, name)
	if err != nil {
		return false, fmt.Errorf("invalid filter pattern: %v", err)
	}
	return matched, nil
}

// runScenarioFile executes one scenario file: assertions, then the golden
// comparison when a golden file exists. All failures for the scenario are
// collected, not just the first.
func runScenarioFile(file string, cat *catalog.Catalog, opts *TestOptions, cmd *cobra.Command) (ScenarioResult, *harness.Scenario) {
	w := cmd.OutOrStdout()

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		name := filepath.Base(file)
		if opts.Format != "json" {
			fmt.Fprintf(w, "✗ %s\n", name)
			fmt.Fprintf(w, "  %v\n", err)
		}
		return ScenarioResult{Name: name, Errors: []string{err.Error()}}, nil
	}

	result, err := harness.Run(scenario, cat)
	if err != nil {
		if opts.Format != "json" {
			fmt.Fprintf(w, "✗ %s\n", scenario.Name)
			fmt.Fprintf(w, "  execution failed: %v\n", err)
		}
		return ScenarioResult{
			Name:   scenario.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}, scenario
	}

	errs := append([]string{}, result.Errors...)
	suffix := ""

	goldenPath := goldenFilePath(file)
	switch {
	case opts.UpdateGolden:
		if err := writeGoldenFile(goldenPath, harness.TraceBytes(result)); err != nil {
			errs = append(errs, fmt.Sprintf("failed to update golden file: %v", err))
		} else {
			suffix = " (golden updated)"
		}
	default:
		golden, err := os.ReadFile(goldenPath)
		switch {
		case os.IsNotExist(err):
			// No golden file: assertions carry the scenario alone.
		case err != nil:
			errs = append(errs, fmt.Sprintf("failed to read golden file: %v", err))
		case !bytes.Equal(golden, harness.TraceBytes(result)):
			errs = append(errs, "trace does not match golden file (run with --update-golden to regenerate)")
		}
	}

	scenResult := ScenarioResult{Name: scenario.Name, Pass: len(errs) == 0, Errors: errs}
	if opts.Format != "json" {
		if scenResult.Pass {
			fmt.Fprintf(w, "✓ %s%s\n", scenario.Name, suffix)
		} else {
			fmt.Fprintf(w, "✗ %s%s\n", scenario.Name, suffix)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
	}
	return scenResult, scenario
}

// goldenFilePath returns the golden file a scenario is compared against.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// writeGoldenFile writes a trace, creating the golden directory if needed.
func writeGoldenFile(path string, trace []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, trace, 0644)
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	status := "ok"
	response := CLIResponse{Status: status, Data: result}

	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTest,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := encodeIndented(formatter.Writer, response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test summary as text.
func outputTestText(formatter *OutputFormatter, result TestResult) error {
	w := formatter.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
