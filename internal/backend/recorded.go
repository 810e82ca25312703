package backend

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/paradox/internal/circuit"
)

// recordedFile is the YAML shape of a capture file.
type recordedFile struct {
	// Backend is the declared name of the device the counts were captured
	// from. Defaults to "recorded".
	Backend string `yaml:"backend,omitempty"`

	// Qubits is the declared device width. Zero means the capture does
	// not constrain width.
	Qubits int `yaml:"qubits,omitempty"`

	// Register optionally overrides the register name every replayed
	// result is stored under. When empty, each result uses the submitted
	// circuit's own register.
	Register string `yaml:"register,omitempty"`

	// Results maps circuit label to its bitstring histogram.
	Results map[string]map[string]int `yaml:"results"`
}

// Recorded replays previously captured counts keyed by circuit label. It is
// the replay and testing implementation of Backend: Submit never executes
// anything, it hands back the stored histograms in submission order.
type Recorded struct {
	name     string
	qubits   int
	register string
	results  map[string]map[string]int
}

// NewRecorded builds a replay backend from in-memory counts. The harness
// uses this to turn scenario fixtures into a Backend without a file.
func NewRecorded(name, register string, results map[string]map[string]int) *Recorded {
	if name == "" {
		name = "recorded"
	}
	copied := make(map[string]map[string]int, len(results))
	for label, m := range results {
		inner := make(map[string]int, len(m))
		for k, v := range m {
			inner[k] = v
		}
		copied[label] = inner
	}
	return &Recorded{name: name, register: register, results: copied}
}

// LoadRecorded reads and parses a capture file. Returns an error if the
// file doesn't exist, is malformed, contains unknown fields (typos), or
// carries no results.
func LoadRecorded(path string) (*Recorded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recorded counts: %w", err)
	}
	return ParseRecorded(data)
}

// ParseRecorded parses capture YAML with strict field validation.
func ParseRecorded(data []byte) (*Recorded, error) {
	var file recordedFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // reject unknown fields
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse recorded counts: %w", err)
	}
	if err := validateRecorded(&file); err != nil {
		return nil, fmt.Errorf("invalid recorded counts: %w", err)
	}

	r := NewRecorded(file.Backend, file.Register, file.Results)
	r.qubits = file.Qubits
	return r, nil
}

func validateRecorded(f *recordedFile) error {
	if len(f.Results) == 0 {
		return fmt.Errorf("results is required and must be non-empty")
	}
	if f.Qubits < 0 {
		return fmt.Errorf("qubits must be non-negative, got %d", f.Qubits)
	}
	for label, m := range f.Results {
		if label == "" {
			return fmt.Errorf("results: empty circuit label")
		}
		for key, n := range m {
			if n < 0 {
				return fmt.Errorf("results[%s]: key %q has negative count %d", label, key, n)
			}
		}
	}
	return nil
}

// Name returns the declared backend name.
func (r *Recorded) Name() string { return r.name }

// Results returns a copy of the stored histograms keyed by circuit label.
// Tooling that works on raw counts (the analyze command) reads them here
// without going through Submit.
func (r *Recorded) Results() map[string]map[string]int {
	copied := make(map[string]map[string]int, len(r.results))
	for label, m := range r.results {
		inner := make(map[string]int, len(m))
		for k, v := range m {
			inner[k] = v
		}
		copied[label] = inner
	}
	return copied
}

// Submit replays the stored counts for each circuit, in submission order.
// The shot count is ignored: a capture replays exactly what was captured.
// Submitting a circuit whose label has no record fails the whole batch,
// naming the first missing label.
func (r *Recorded) Submit(ctx context.Context, circuits []circuit.Circuit, shots int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := make([]Result, len(circuits))
	for i, c := range circuits {
		m, ok := r.results[c.Label]
		if !ok {
			return nil, fmt.Errorf("no recorded counts for circuit %q", c.Label)
		}
		register := r.register
		if register == "" {
			register = c.Register
		}
		results[i] = &recordedResult{register: register, counts: m}
	}
	return results, nil
}

// LeastBusy reports the capture as the execution target. A declared width
// is enforced; an undeclared one constrains nothing.
func (r *Recorded) LeastBusy(ctx context.Context, minQubits int) (Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return Descriptor{}, err
	}
	if r.qubits > 0 && minQubits > r.qubits {
		return Descriptor{}, fmt.Errorf("recorded backend %q has %d qubits, need %d", r.name, r.qubits, minQubits)
	}
	qubits := r.qubits
	if qubits == 0 {
		qubits = minQubits
	}
	return Descriptor{Name: r.name, Qubits: qubits}, nil
}

// recordedResult exposes one replayed histogram under a single register.
type recordedResult struct {
	register string
	counts   map[string]int
}

func (r *recordedResult) Counts(register string) (map[string]int, bool) {
	if register != r.register {
		return nil, false
	}
	return r.counts, true
}

func (r *recordedResult) Registers() []string {
	return []string{r.register}
}
