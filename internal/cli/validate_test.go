package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCatalogFile(t *testing.T) {
	path := writeCatalogFile(t, t.TempDir(), "custom.cue", customCatalogCUE)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ "+path+": catalog, 1 experiment(s)")
	assert.Contains(t, output, "1 valid, 0 invalid")
}

func TestValidateScenarioFile(t *testing.T) {
	path := writeCountsFile(t, t.TempDir(), "chsh.yaml", chshScenarioYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "scenario \"chsh\", experiment chsh")
	assert.Contains(t, output, "1 valid, 0 invalid")
}

func TestValidateCountsFile(t *testing.T) {
	path := writeCountsFile(t, t.TempDir(), "capture.yaml", chshCountsYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "counts capture, 5 circuit(s)")
	assert.Contains(t, output, "1 valid, 0 invalid")
}

func TestValidateRejectsAmbiguousYAML(t *testing.T) {
	// Neither a scenario nor a capture: both parsers must be named in
	// the failure so the user knows what was attempted.
	path := writeCountsFile(t, t.TempDir(), "junk.yaml", "just: nonsense\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 file(s) invalid")

	output := buf.String()
	assert.Contains(t, output, "✗ "+path)
	assert.Contains(t, output, "not a scenario")
	assert.Contains(t, output, "or a counts capture")
	assert.Contains(t, output, "0 valid, 1 invalid")
}

func TestValidateUnsupportedExtension(t *testing.T) {
	path := writeCountsFile(t, t.TempDir(), "notes.txt", "whatever")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), `unsupported file type ".txt"`)
}

func TestValidateMissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/capture.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "0 valid, 1 invalid")
}

func TestValidateMixedFiles(t *testing.T) {
	tmpDir := t.TempDir()
	good := writeCountsFile(t, tmpDir, "capture.yaml", chshCountsYAML)
	bad := writeCountsFile(t, tmpDir, "junk.yaml", ": not yaml at all {{{")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{good, bad})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✓ "+good)
	assert.Contains(t, output, "✗ "+bad)
	assert.Contains(t, output, "1 valid, 1 invalid")
}

func TestValidateJSONSuccess(t *testing.T) {
	path := writeCountsFile(t, t.TempDir(), "capture.yaml", chshCountsYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	resp := decodeResponse(t, buf)
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, data["valid"])
	assert.EqualValues(t, 0, data["invalid"])
}

func TestValidateJSONFailureKeepsPerFileResults(t *testing.T) {
	path := writeCountsFile(t, t.TempDir(), "junk.yaml", "just: nonsense\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E003", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, path)

	// The per-file breakdown rides along even on failure.
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	files, ok := data["files"].([]any)
	require.True(t, ok)
	assert.Len(t, files, 1)
}

func TestValidateRequiresArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestValidateFileDispatch(t *testing.T) {
	tmpDir := t.TempDir()
	capture := writeCountsFile(t, tmpDir, "capture.yml", chshCountsYAML)

	fv := validateFile(capture)
	assert.True(t, fv.Valid)
	assert.Equal(t, "counts", fv.Kind)

	fv = validateFile(filepath.Join(tmpDir, "absent.cue"))
	assert.False(t, fv.Valid)
	assert.NotEmpty(t, fv.Error)

	_ = os.WriteFile(filepath.Join(tmpDir, "plain.json"), []byte("{}"), 0644)
	fv = validateFile(filepath.Join(tmpDir, "plain.json"))
	assert.False(t, fv.Valid)
	assert.Contains(t, fv.Error, "unsupported file type")
}
