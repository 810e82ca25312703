package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/paradox/internal/backend"
	"github.com/roach88/paradox/internal/harness"
)

// FileValidation is the validation outcome for one file.
type FileValidation struct {
	Path   string `json:"path"`
	Kind   string `json:"kind,omitempty"` // "catalog" | "scenario" | "counts"
	Valid  bool   `json:"valid"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ValidateResult holds per-file validation outcomes.
type ValidateResult struct {
	Files   []FileValidation `json:"files"`
	Valid   int              `json:"valid"`
	Invalid int              `json:"invalid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file...>",
		Short: "Validate catalog, scenario, and counts files",
		Long: `Validate input files without running anything.

Files are dispatched by extension: .cue files compile as experiment
catalogs; .yaml/.yml files are accepted when they parse as either a
harness scenario or a recorded-counts capture. Every file is reported
individually; an unreadable file counts as invalid.

Exit codes:
  0 - All files valid
  1 - One or more files invalid
  2 - Command error (no files given)

Examples:
  paradox validate experiments.cue
  paradox validate scenarios/*.yaml
  paradox validate experiments.cue captures/chsh.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result := ValidateResult{Files: make([]FileValidation, 0, len(files))}
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		fv := validateFile(file)
		result.Files = append(result.Files, fv)
		if fv.Valid {
			result.Valid++
		} else {
			result.Invalid++
		}
	}

	if formatter.Format == "json" {
		if result.Invalid > 0 {
			return outputValidateFailureJSON(formatter, result)
		}
		if err := formatter.Success(result); err != nil {
			return err
		}
		return nil
	}

	return outputValidateText(formatter, result)
}

// validateFile dispatches one file by extension and reports what it is.
func validateFile(path string) FileValidation {
	fv := FileValidation{Path: path}

	switch ext := filepath.Ext(path); ext {
	case ".cue":
		cat, err := loadCatalog(path)
		if err != nil {
			fv.Error = err.Error()
			return fv
		}
		fv.Kind = "catalog"
		fv.Valid = true
		fv.Detail = fmt.Sprintf("%d experiment(s)", len(cat.Configs))
		return fv

	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			fv.Error = err.Error()
			return fv
		}
		scenario, scenErr := harness.ParseScenario(data)
		if scenErr == nil {
			fv.Kind = "scenario"
			fv.Valid = true
			fv.Detail = fmt.Sprintf("scenario %q, experiment %s", scenario.Name, scenario.Experiment)
			return fv
		}
		rec, recErr := backend.ParseRecorded(data)
		if recErr == nil {
			fv.Kind = "counts"
			fv.Valid = true
			fv.Detail = fmt.Sprintf("counts capture, %d circuit(s)", len(rec.Results()))
			return fv
		}
		fv.Error = fmt.Sprintf("not a scenario (%v) or a counts capture (%v)", scenErr, recErr)
		return fv

	default:
		fv.Error = fmt.Sprintf("unsupported file type %q (want .cue, .yaml, or .yml)", ext)
		return fv
	}
}

// outputValidateFailureJSON emits the per-file results with an error
// envelope and maps the failure to exit code 1.
func outputValidateFailureJSON(formatter *OutputFormatter, result ValidateResult) error {
	first := ""
	for _, fv := range result.Files {
		if !fv.Valid {
			first = fmt.Sprintf("%s: %s", fv.Path, fv.Error)
			break
		}
	}
	response := CLIResponse{
		Status: "error",
		Data:   result,
		Error: &CLIError{
			Code:    ErrCodeParse,
			Message: first,
		},
	}
	if err := encodeIndented(formatter.Writer, response); err != nil {
		return err
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) invalid", result.Invalid))
}

// outputValidateText renders per-file lines and the summary.
func outputValidateText(formatter *OutputFormatter, result ValidateResult) error {
	w := formatter.Writer

	for _, fv := range result.Files {
		if fv.Valid {
			fmt.Fprintf(w, "✓ %s: %s, %s\n", fv.Path, fv.Kind, fv.Detail)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", fv.Path)
		fmt.Fprintf(w, "    %s\n", fv.Error)
	}

	fmt.Fprintf(w, "\n%d valid, %d invalid\n", result.Valid, result.Invalid)

	if result.Invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) invalid", result.Invalid))
	}
	return nil
}
