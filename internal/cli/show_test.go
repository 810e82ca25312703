package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowMissingDatabaseFlag(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewShowCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"some-run-id"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "db")
}

func TestShowRequiresRunID(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewShowCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestShowRunNotFound(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewShowCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"nope", "--db", dbPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), `run "nope" not found`)
	assert.Contains(t, buf.String(), "Error [E002]")
}

func TestShowRunDetail(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	runID := persistRun(t, dbPath, "chsh", chshCountsYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewShowCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{runID, "--db", dbPath})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Run "+runID)
	assert.Contains(t, output, "Experiment: chsh (family chsh)")
	assert.Contains(t, output, "Backend:    test-device, 4096 shots")
	assert.Contains(t, output, "Verdict:    violation-confirmed (deviation 0.2500)")
	assert.Contains(t, output, "exceeds the classical bound")

	assert.Contains(t, output, "Circuits:")
	assert.Contains(t, output, "A1B1")
	assert.Contains(t, output, "2 qubits, 2 clbits")

	assert.Contains(t, output, "Histograms:")
	assert.Contains(t, output, "1024 shots over 4 outcome(s)")
	assert.Contains(t, output, "1024 shots over 1 outcome(s)")

	assert.Contains(t, output, "Statistics:")
	assert.Contains(t, output, "correlator")
	assert.Contains(t, output, "2.250000")
	assert.Contains(t, output, "-0.750000")

	// Histogram keys only print under --verbose.
	assert.NotContains(t, output, "00: 512")
}

func TestShowVerboseHistograms(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	runID := persistRun(t, dbPath, "chsh", chshCountsYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Verbose: true}
	cmd := NewShowCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{runID, "--db", dbPath})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "00: 512")
	assert.Contains(t, output, "01: 448")
	assert.Contains(t, output, "00: 1024")
}

func TestShowJSONOutput(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	runID := persistRun(t, dbPath, "chsh", chshCountsYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewShowCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{runID, "--db", dbPath})

	require.NoError(t, cmd.Execute())

	resp := decodeResponse(t, buf)
	assert.Equal(t, "ok", resp.Status)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result ShowResult
	require.NoError(t, json.Unmarshal(raw, &result))

	assert.Equal(t, runID, result.Run.ID)
	assert.Equal(t, "chsh", result.Run.Name)
	assert.Equal(t, "test-device", result.Run.Backend)
	assert.Equal(t, "violation-confirmed", result.Run.Verdict)

	require.Len(t, result.Circuits, 5)
	wantLabels := []string{"A0B0", "A0B1", "A1B0", "A1B1", "classical"}
	for i, c := range result.Circuits {
		assert.Equal(t, i, c.Position)
		assert.Equal(t, wantLabels[i], c.Label)
		assert.NotEmpty(t, c.Hash)
	}

	require.Len(t, result.Histograms, 5)
	classical, ok := result.Histograms["classical"]
	require.True(t, ok)
	assert.Equal(t, 1024, classical.Total)
	assert.Equal(t, 1024, classical.Counts["00"])

	require.Len(t, result.Statistics, 6)
	assert.Equal(t, "S", result.Statistics[4].Name)
	assert.Equal(t, "chsh", result.Statistics[4].Kind)
	assert.InDelta(t, 2.25, result.Statistics[4].Value, 1e-9)
	assert.Equal(t, "E_classical", result.Statistics[5].Name)
	assert.InDelta(t, 1.0, result.Statistics[5].Value, 1e-9)
}
