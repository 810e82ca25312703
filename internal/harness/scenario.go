package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/paradox/internal/verdict"
)

// Scenario is one recorded-count conformance case: the counts a device
// (or an analytic model) produced for every circuit of one catalog
// experiment, plus the outcome those counts must classify to.
type Scenario struct {
	// Name identifies the scenario; it doubles as the golden file name
	// and the replayed run's ID suffix.
	Name string `yaml:"name"`

	// Description says what the fixture demonstrates.
	Description string `yaml:"description"`

	// Experiment names the catalog entry whose circuits the counts
	// belong to.
	Experiment string `yaml:"experiment"`

	// Register optionally overrides the register the replayed results
	// report their counts under, to exercise decode fallbacks.
	Register string `yaml:"register,omitempty"`

	// Counts maps circuit label to its bitstring histogram.
	Counts map[string]map[string]int `yaml:"counts"`

	// Expect declares the required outcome.
	Expect ExpectClause `yaml:"expect"`
}

// ExpectClause is the assertion block of a scenario.
type ExpectClause struct {
	// Verdict is the required classification status.
	Verdict string `yaml:"verdict"`

	// Deviation optionally pins the verdict's deviation.
	Deviation *ValueWithin `yaml:"deviation,omitempty"`

	// Statistics optionally pin individual flattened scalars.
	Statistics []StatisticWant `yaml:"statistics,omitempty"`
}

// ValueWithin is a float expectation with a tolerance. A zero Within
// means the default tolerance of 1e-9.
type ValueWithin struct {
	Value  float64 `yaml:"value"`
	Within float64 `yaml:"within,omitempty"`
}

// StatisticWant pins one flattened scalar by name.
type StatisticWant struct {
	Name   string  `yaml:"name"`
	Value  float64 `yaml:"value"`
	Within float64 `yaml:"within,omitempty"`
}

// defaultTolerance bounds float comparisons when a scenario does not
// declare its own.
const defaultTolerance = 1e-9

// tolerance returns the effective comparison window.
func (v ValueWithin) tolerance() float64 {
	if v.Within == 0 {
		return defaultTolerance
	}
	return v.Within
}

func (w StatisticWant) tolerance() float64 {
	return ValueWithin{Within: w.Within}.tolerance()
}

// validStatuses is the closed verdict vocabulary scenarios may expect.
var validStatuses = map[string]bool{
	string(verdict.StatusViolationConfirmed): true,
	string(verdict.StatusWeakSignal):         true,
	string(verdict.StatusNotObserved):        true,
	string(verdict.StatusReversalSuccessful): true,
	string(verdict.StatusReversalFailed):     true,
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation:
// unknown fields are rejected so typos fail loudly instead of silently
// weakening the expectation.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Experiment == "" {
		return fmt.Errorf("experiment is required")
	}
	if len(s.Counts) == 0 {
		return fmt.Errorf("counts is required and must be non-empty")
	}
	for label, m := range s.Counts {
		if label == "" {
			return fmt.Errorf("counts: empty circuit label")
		}
		for key, n := range m {
			if n < 0 {
				return fmt.Errorf("counts[%s]: key %q has negative count %d", label, key, n)
			}
		}
	}
	if s.Expect.Verdict == "" {
		return fmt.Errorf("expect.verdict is required")
	}
	if !validStatuses[s.Expect.Verdict] {
		return fmt.Errorf("expect.verdict: unknown status %q", s.Expect.Verdict)
	}
	if s.Expect.Deviation != nil && s.Expect.Deviation.Within < 0 {
		return fmt.Errorf("expect.deviation: within must be non-negative, got %v", s.Expect.Deviation.Within)
	}
	for i, want := range s.Expect.Statistics {
		if want.Name == "" {
			return fmt.Errorf("expect.statistics[%d]: name is required", i)
		}
		if want.Within < 0 {
			return fmt.Errorf("expect.statistics[%d]: within must be non-negative, got %v", i, want.Within)
		}
	}
	return nil
}
