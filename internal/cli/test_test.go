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

// chshScenarioYAML passes against the default catalog: S = 2.25 with the
// 0.05 margin confirms the violation.
const chshScenarioYAML = `name: chsh
description: "Bell pair counts at the optimal settings cross the classical bound"
experiment: chsh
counts:
  A0B0: {"00": 512, "11": 256, "01": 128, "10": 128}
  A0B1: {"00": 512, "11": 256, "01": 128, "10": 128}
  A1B0: {"00": 512, "11": 256, "01": 128, "10": 128}
  A1B1: {"00": 64, "01": 448, "10": 448, "11": 64}
  classical: {"00": 1024}
expect:
  verdict: violation-confirmed
  deviation: {value: 0.25}
  statistics:
    - name: S
      value: 2.25
    - name: E_classical
      value: 1.0
`

// chshFailingScenarioYAML expects the wrong verdict for the same counts.
const chshFailingScenarioYAML = `name: chsh-wrong
description: "Deliberately wrong expectation"
experiment: chsh
counts:
  A0B0: {"00": 512, "11": 256, "01": 128, "10": 128}
  A0B1: {"00": 512, "11": 256, "01": 128, "10": 128}
  A1B0: {"00": 512, "11": 256, "01": 128, "10": 128}
  A1B1: {"00": 64, "01": 448, "10": 448, "11": 64}
  classical: {"00": 1024}
expect:
  verdict: not-observed
`

// writeScenarioFile writes a scenario fixture and returns its path.
func writeScenarioFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestTestCommandMissingPath(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"/nonexistent/scenarios"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "scenario path")
}

func TestTestCommandPassingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "chsh.yaml", chshScenarioYAML)

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ chsh")
	assert.Contains(t, output, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, output, "✓ All scenarios passed")

	// Catalog entries nothing covers are warned on stderr only.
	warnings := errBuf.String()
	assert.Contains(t, warnings, "warning: no scenario covers ghz")
	assert.Contains(t, warnings, "warning: no scenario covers zeno")
	assert.NotContains(t, warnings, "no scenario covers chsh")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "chsh-wrong.yaml", chshFailingScenarioYAML)

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 scenario(s) failed")

	output := buf.String()
	assert.Contains(t, output, "✗ chsh-wrong")
	assert.Contains(t, output, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommandUnparsableScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "broken.yaml", "name: broken\nunknown_field: true\n")

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ broken.yaml")
}

func TestTestCommandGoldenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "chsh.yaml", chshScenarioYAML)
	goldenPath := filepath.Join(dir, "golden", "chsh.golden")

	runTest := func(args ...string) (error, string) {
		buf := &bytes.Buffer{}
		errBuf := &bytes.Buffer{}
		rootOpts := &RootOptions{Format: "text"}
		cmd := NewTestCommand(rootOpts)
		cmd.SetOut(buf)
		cmd.SetErr(errBuf)
		cmd.SetArgs(args)
		return cmd.Execute(), buf.String()
	}

	// First pass writes the golden file.
	err, output := runTest(dir, "--update-golden")
	require.NoError(t, err)
	assert.Contains(t, output, "✓ chsh (golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.NotEmpty(t, golden)

	// Second pass compares against it and passes: the trace is
	// deterministic.
	err, output = runTest(dir)
	require.NoError(t, err)
	assert.Contains(t, output, "Test Summary: 1 passed, 0 failed, 1 total")

	// A tampered golden file fails the comparison.
	require.NoError(t, os.WriteFile(goldenPath, append(golden, []byte("tampered\n")...), 0644))
	err, output = runTest(dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "trace does not match golden file")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "chsh.yaml", chshScenarioYAML)
	writeScenarioFile(t, dir, "chsh-wrong.yaml", chshFailingScenarioYAML)

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{dir, "--filter", "chsh"})

	// The failing scenario is filtered out by its file name.
	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandBadFilterPattern(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "chsh.yaml", chshScenarioYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{dir, "--filter", "[unclosed"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "invalid filter pattern")
}

func TestTestCommandNoScenarios(t *testing.T) {
	dir := t.TempDir()

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No scenarios found.")
}

func TestTestCommandExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	pass := writeScenarioFile(t, dir, "chsh.yaml", chshScenarioYAML)
	fail := writeScenarioFile(t, dir, "chsh-wrong.yaml", chshFailingScenarioYAML)

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{pass, fail})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "chsh.yaml", chshScenarioYAML)
	writeScenarioFile(t, dir, "chsh-wrong.yaml", chshFailingScenarioYAML)

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	// Stdout is one JSON document: scenario markers and coverage
	// warnings are suppressed in JSON mode.
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E103", resp.Error.Code)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, data["passed"])
	assert.EqualValues(t, 1, data["failed"])
	assert.EqualValues(t, 2, data["total"])

	uncovered, ok := data["uncovered"].([]any)
	require.True(t, ok)
	assert.Contains(t, uncovered, "ghz")
	assert.NotContains(t, uncovered, "chsh")
}

func TestCollectScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0755))

	writeScenarioFile(t, dir, "a.yaml", "x")
	writeScenarioFile(t, dir, "b.yml", "x")
	writeScenarioFile(t, dir, "ignored.txt", "x")
	writeScenarioFile(t, sub, "c.yaml", "x")

	files, err := collectScenarioFiles([]string{dir}, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = collectScenarioFiles([]string{dir}, "a")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	// Explicit file arguments skip the extension check but still honor
	// the filter.
	files, err = collectScenarioFiles([]string{filepath.Join(dir, "a.yaml")}, "b")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "chsh.golden"),
		goldenFilePath(filepath.Join("scenarios", "chsh.yaml")))
}
