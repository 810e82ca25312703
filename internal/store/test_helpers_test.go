package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/paradox/internal/circuit"
	"github.com/roach88/paradox/internal/counts"
	"github.com/roach88/paradox/internal/experiment"
	"github.com/roach88/paradox/internal/stats"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun builds a run row with fixed timestamps for comparison.
func createTestRun(id string) Run {
	return Run{
		ID:          id,
		Name:        "chsh",
		Family:      "chsh",
		Backend:     "recorded",
		Shots:       1024,
		CatalogHash: "cafe",
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Verdict:     "violation-confirmed",
		Deviation:   0.83,
		Reason:      "S = 2.83 exceeds 2 by 0.83",
	}
}

func createTestCircuits() []circuit.Circuit {
	return []circuit.Circuit{
		*circuit.New("A0B0", 2, 2).H(0).CX(0, 1).MeasureAll(),
		*circuit.New("classical", 2, 2).MeasureAll(),
	}
}

func createTestHistograms() map[string]counts.Histogram {
	return map[string]counts.Histogram{
		"A0B0":      counts.MustNew(2, 1024, map[string]int{"00": 512, "11": 512}),
		"classical": counts.MustNew(2, 1024, map[string]int{"00": 1024}),
	}
}

func createTestScalars() []stats.Scalar {
	return []stats.Scalar{
		{Name: "E_A0B0", Kind: experiment.StatCorrelator, Value: 1.0, Defined: true},
		{Name: "S", Kind: experiment.StatCHSH, Value: 2.83, Defined: true},
	}
}
