package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/paradox/internal/experiment"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledCatalog holds the compiled catalog: its provenance hash and the
// validated experiment configurations in name order.
type CompiledCatalog struct {
	Source      string              `json:"source"`
	Hash        string              `json:"hash"`
	Experiments []experiment.Config `json:"experiments"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [catalog.cue]",
		Short: "Compile an experiment catalog",
		Long: `Compile a CUE experiment catalog and print its entries.

Without an argument the embedded default catalog is compiled: one entry
per family with the original experiments' parameters. Every entry is
checked against the catalog schema and the config validator; the printed
hash is the provenance hash recorded on runs produced from this catalog.

Exit codes:
  0 - Catalog compiled
  2 - Command error (unreadable file, schema or validation failure)

Examples:
  paradox compile
  paradox compile experiments.cue
  paradox compile experiments.cue -o compiled.json --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runCompile(opts, path, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled catalog as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	source := "embedded default"
	if path != "" {
		source = path
	}
	formatter.VerboseLog("Compiling catalog from %s", source)

	cat, err := loadCatalog(path)
	if err != nil {
		_ = formatter.Error(ErrCodeParse, fmt.Sprintf("failed to compile catalog: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to compile catalog", err)
	}

	result := &CompiledCatalog{
		Source:      source,
		Hash:        cat.Hash,
		Experiments: cat.Configs,
	}

	if opts.Output != "" {
		if err := writeCompiledCatalog(result, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWrite, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// outputCompileSuccess outputs a compiled catalog.
func outputCompileSuccess(formatter *OutputFormatter, result *CompiledCatalog, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d experiment(s) from %s catalog\n\n",
		len(result.Experiments), result.Source)

	fmt.Fprintln(formatter.Writer, "Experiments:")
	for _, cfg := range result.Experiments {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", cfg.Name, experimentDetail(cfg))
	}
	fmt.Fprintln(formatter.Writer)

	fmt.Fprintf(formatter.Writer, "Catalog hash: %s\n", result.Hash)
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote compiled catalog to %s\n", outputFile)
	}

	return nil
}

// experimentDetail renders the per-family parameters of one catalog entry.
func experimentDetail(cfg experiment.Config) string {
	detail := fmt.Sprintf("family %s, %d shots", cfg.Family, cfg.Shots)
	switch cfg.Family {
	case experiment.FamilyZeno:
		detail += fmt.Sprintf(", checkpoints %v, mode %s", cfg.Checkpoints, cfg.Mode)
	case experiment.FamilyCat:
		detail += fmt.Sprintf(", delays %v", cfg.Delays)
	case experiment.FamilyBomb:
		detail += fmt.Sprintf(", %d stages", cfg.Stages)
	}
	return detail
}

// writeCompiledCatalog writes the compiled catalog to a file as indented
// JSON, the shape tooling consumes.
func writeCompiledCatalog(result *CompiledCatalog, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
