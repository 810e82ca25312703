package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/roach88/paradox/internal/backend"
	"github.com/roach88/paradox/internal/catalog"
	"github.com/roach88/paradox/internal/runner"
	"github.com/roach88/paradox/internal/stats"
	"github.com/roach88/paradox/internal/store"
	"github.com/roach88/paradox/internal/testutil"
)

// Result is the outcome of one scenario execution.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Trace is the line-oriented execution transcript, stable across
	// runs and compared against golden files.
	Trace []string `json:"trace"`

	// Errors lists the expectations that failed. Empty when Pass.
	Errors []string `json:"errors,omitempty"`

	// Outcome carries the full pipeline output for callers that want
	// more than the transcript. Nil when the pipeline itself failed.
	Outcome *runner.Outcome `json:"-"`
}

// NewResult creates a passing result; expectation failures demote it.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []string{}, Errors: []string{}}
}

// AddError records a failed expectation and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// harnessEpoch pins the replay clock so persisted timestamps are stable.
var harnessEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Run executes one scenario end to end: the recorded counts replay
// through the full pipeline against a fresh in-memory database, and the
// outcome is checked against the scenario's expect clause.
//
// A pipeline failure is not a Go error; it lands in Result.Errors like
// any other unmet expectation. Run itself fails only when the scenario
// references an unknown experiment or the database cannot be opened.
func Run(scenario *Scenario, cat *catalog.Catalog) (*Result, error) {
	cfg, ok := cat.Lookup(scenario.Experiment)
	if !ok {
		return nil, fmt.Errorf("scenario %q: experiment %q is not in the catalog", scenario.Name, scenario.Experiment)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewClock(harnessEpoch, time.Second)
	r := runner.New(
		backend.NewRecorded("harness", scenario.Register, scenario.Counts),
		runner.WithStore(st),
		runner.WithCatalogHash(cat.Hash),
		runner.WithIDGenerator(testutil.NewConstantIDGenerator("run-"+scenario.Name)),
		runner.WithNow(clock.Now),
		runner.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	result := NewResult()
	outcome, err := r.Run(context.Background(), cfg)
	if err != nil {
		result.AddError(fmt.Sprintf("pipeline: %v", err))
		return result, nil
	}
	result.Outcome = outcome
	result.Trace = buildTrace(scenario, outcome)

	evaluateExpect(scenario, outcome, result)
	return result, nil
}

// buildTrace renders the outcome as one line per pipeline artifact, in
// pipeline order. Floats print as fixed six-decimal strings; histograms
// follow circuit submission order, never map order.
func buildTrace(scenario *Scenario, out *runner.Outcome) []string {
	trace := []string{
		fmt.Sprintf("scenario %s", scenario.Name),
		fmt.Sprintf("experiment %s family=%s shots=%d", out.Config.Name, out.Config.Family, out.Config.Shots),
		fmt.Sprintf("run %s", out.RunID),
		fmt.Sprintf("backend %s qubits=%d", out.Backend.Name, out.Backend.Qubits),
	}
	for i := range out.Circuits {
		c := &out.Circuits[i]
		trace = append(trace, fmt.Sprintf("circuit %s qubits=%d clbits=%d ops=%d",
			c.Label, c.Qubits, c.Clbits, len(c.Ops)))
	}
	for i := range out.Circuits {
		label := out.Circuits[i].Label
		h := out.Histograms[label]
		trace = append(trace, fmt.Sprintf("histogram %s total=%d keys=%d",
			label, h.Total(), len(h.Keys())))
	}
	for _, s := range stats.Flatten(out.Statistics) {
		trace = append(trace, fmt.Sprintf("statistic %s kind=%s value=%.6f defined=%t",
			s.Name, s.Kind, s.Value, s.Defined))
	}
	for _, p := range out.Predictions {
		trace = append(trace, fmt.Sprintf("prediction %s value=%.6f", p.Name, p.Value))
	}
	trace = append(trace,
		fmt.Sprintf("verdict %s deviation=%.6f", out.Verdict.Status, out.Verdict.Deviation),
		fmt.Sprintf("reason %s", out.Verdict.Reason),
	)
	return trace
}

// evaluateExpect checks the scenario's expect clause against the
// outcome. Every violated expectation is recorded; evaluation never
// stops at the first failure.
func evaluateExpect(scenario *Scenario, out *runner.Outcome, result *Result) {
	if got := string(out.Verdict.Status); got != scenario.Expect.Verdict {
		result.AddError(fmt.Sprintf("verdict: expected %q, got %q (%s)",
			scenario.Expect.Verdict, got, out.Verdict.Reason))
	}

	if d := scenario.Expect.Deviation; d != nil {
		if diff := math.Abs(out.Verdict.Deviation - d.Value); diff > d.tolerance() {
			result.AddError(fmt.Sprintf("deviation: expected %v within %v, got %v",
				d.Value, d.tolerance(), out.Verdict.Deviation))
		}
	}

	scalars := stats.Flatten(out.Statistics)
	byName := make(map[string]stats.Scalar, len(scalars))
	names := make([]string, 0, len(scalars))
	for _, s := range scalars {
		byName[s.Name] = s
		names = append(names, s.Name)
	}
	for _, want := range scenario.Expect.Statistics {
		got, ok := byName[want.Name]
		if !ok {
			result.AddError(fmt.Sprintf("statistic %s: not produced (have: %s)",
				want.Name, strings.Join(names, ", ")))
			continue
		}
		if !got.Defined {
			result.AddError(fmt.Sprintf("statistic %s: undefined, its source histogram was empty", want.Name))
			continue
		}
		if diff := math.Abs(got.Value - want.Value); diff > want.tolerance() {
			result.AddError(fmt.Sprintf("statistic %s: expected %v within %v, got %v",
				want.Name, want.Value, want.tolerance(), got.Value))
		}
	}
}
