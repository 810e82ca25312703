package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/roach88/paradox/internal/circuit"
	"github.com/roach88/paradox/internal/counts"
	"github.com/roach88/paradox/internal/stats"
)

// Run is the persisted form of one pipeline execution.
type Run struct {
	ID          string
	Name        string
	Family      string
	Backend     string
	Shots       int
	CatalogHash string
	CreatedAt   time.Time
	Verdict     string
	Deviation   float64
	Reason      string
}

// WriteOutcome persists a complete run in a single transaction: the run row,
// its circuits (content-addressed, deduplicated across runs), the decoded
// histograms, and the flattened statistics. Either everything lands or
// nothing does.
//
// Circuit rows use ON CONFLICT(hash) DO NOTHING: identical circuits across
// runs share one body row. Run IDs are fresh UUIDs, so a duplicate run
// insert is an error, not an idempotent retry.
func (s *Store) WriteOutcome(
	ctx context.Context,
	run Run,
	circuits []circuit.Circuit,
	hists map[string]counts.Histogram,
	scalars []stats.Scalar,
) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write outcome: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, name, family, backend, shots, catalog_hash, created_at, verdict, deviation, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Name,
		run.Family,
		run.Backend,
		run.Shots,
		run.CatalogHash,
		run.CreatedAt.UTC().Format(TimeFormat),
		run.Verdict,
		run.Deviation,
		run.Reason,
	)
	if err != nil {
		return fmt.Errorf("write outcome: insert run: %w", err)
	}

	for i := range circuits {
		c := &circuits[i]
		hash, err := circuit.Hash(c)
		if err != nil {
			return fmt.Errorf("write outcome: hash circuit %q: %w", c.Label, err)
		}
		body, err := circuit.CanonicalBody(c)
		if err != nil {
			return fmt.Errorf("write outcome: encode circuit %q: %w", c.Label, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO circuits (hash, label, qubits, clbits, body)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(hash) DO NOTHING
		`, hash, c.Label, c.Qubits, c.Clbits, string(body))
		if err != nil {
			return fmt.Errorf("write outcome: insert circuit %q: %w", c.Label, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_circuits (run_id, position, circuit_hash)
			VALUES (?, ?, ?)
		`, run.ID, i, hash)
		if err != nil {
			return fmt.Errorf("write outcome: insert run circuit %d: %w", i, err)
		}
	}

	labels := make([]string, 0, len(hists))
	for label := range hists {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		h := hists[label]
		countsJSON, err := marshalCounts(h)
		if err != nil {
			return fmt.Errorf("write outcome: histogram %q: %w", label, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO histograms (run_id, label, width, shots, counts)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, label, h.Width(), h.Shots(), countsJSON)
		if err != nil {
			return fmt.Errorf("write outcome: insert histogram %q: %w", label, err)
		}
	}

	for _, sc := range scalars {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_statistics (run_id, name, kind, value, defined)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, sc.Name, string(sc.Kind), sc.Value, sc.Defined)
		if err != nil {
			return fmt.Errorf("write outcome: insert statistic %q: %w", sc.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write outcome: commit: %w", err)
	}

	return nil
}
