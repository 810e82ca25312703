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

// customCatalogCUE defines a single chsh entry with a wide margin, so the
// same counts that confirm a violation under the default catalog classify
// as a weak signal under this one.
const customCatalogCUE = `experiment: {
	chsh: {
		family: "chsh"
		shots:  4096
		thresholds: margin: 0.5
	}
}
`

// writeCatalogFile writes a catalog fixture and returns its path.
func writeCatalogFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCompileDefaultCatalog(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ Compiled 9 experiment(s) from embedded default catalog")
	assert.Contains(t, output, "chsh: family chsh, 4096 shots")
	assert.Contains(t, output, "zeno: family zeno, 4096 shots, checkpoints [1 2 4 8], mode survival")
	assert.Contains(t, output, "cat: family cat, 4096 shots, delays [0 10 50 100]")
	assert.Contains(t, output, "bomb: family bomb, 4096 shots, 3 stages")
	assert.Contains(t, output, "Catalog hash: ")
}

func TestCompileDefaultCatalogJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.NoError(t, err)

	resp := decodeResponse(t, buf)
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "embedded default", data["source"])
	assert.NotEmpty(t, data["hash"])

	experiments, ok := data["experiments"].([]any)
	require.True(t, ok)
	assert.Len(t, experiments, 9)
}

func TestCompileCustomCatalog(t *testing.T) {
	path := writeCatalogFile(t, t.TempDir(), "custom.cue", customCatalogCUE)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ Compiled 1 experiment(s) from "+path)
	assert.Contains(t, output, "chsh: family chsh, 4096 shots")
}

func TestCompileOutputToFile(t *testing.T) {
	tmpDir := t.TempDir()
	outputFile := filepath.Join(tmpDir, "compiled.json")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--output", outputFile})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Wrote compiled catalog to "+outputFile)

	// Verify content is valid JSON in the compiled shape
	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result CompiledCatalog
	err = json.Unmarshal(data, &result)
	require.NoError(t, err)
	assert.Equal(t, "embedded default", result.Source)
	assert.NotEmpty(t, result.Hash)
	assert.Len(t, result.Experiments, 9)
}

func TestCompileNonExistentFile(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/catalog.cue"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to compile catalog")
	assert.Contains(t, buf.String(), "Error [E003]")
}

func TestCompileRejectsUnknownTopLevelField(t *testing.T) {
	bad := `experiments: {
	chsh: {
		family: "chsh"
		shots:  4096
	}
}
`
	path := writeCatalogFile(t, t.TempDir(), "bad.cue", bad)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "unknown top-level field")
}

func TestCompileRejectsUnknownEntryField(t *testing.T) {
	bad := `experiment: {
	chsh: {
		family: "chsh"
		shots:  4096
		shotss: 10
	}
}
`
	path := writeCatalogFile(t, t.TempDir(), "typo.cue", bad)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to compile catalog")
}

func TestCompileInvalidCatalogJSON(t *testing.T) {
	path := writeCatalogFile(t, t.TempDir(), "empty.cue", "experiment: {}\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)

	var resp CLIResponse
	jsonErr := json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, jsonErr)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E003", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "no experiments")
}

func TestCompileVerboseOutput(t *testing.T) {
	stdoutBuf := &bytes.Buffer{}
	stderrBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Verbose: true}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(stdoutBuf)
	cmd.SetErr(stderrBuf) // Verbose output goes to stderr
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.NoError(t, err)

	// Verbose logs go to stderr to avoid corrupting JSON output
	assert.Contains(t, stderrBuf.String(), "Compiling catalog from embedded default")
}

func TestCompileHashStableAcrossRuns(t *testing.T) {
	hash := func() string {
		buf := &bytes.Buffer{}
		rootOpts := &RootOptions{Format: "json"}
		cmd := NewCompileCommand(rootOpts)
		cmd.SetOut(buf)
		cmd.SetArgs([]string{})
		require.NoError(t, cmd.Execute())

		resp := decodeResponse(t, buf)
		data, ok := resp.Data.(map[string]any)
		require.True(t, ok)
		h, _ := data["hash"].(string)
		require.NotEmpty(t, h)
		return h
	}

	assert.Equal(t, hash(), hash())
}
