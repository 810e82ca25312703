package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/paradox/internal/counts"
)

// StatisticRow is one flattened statistic read back from a run, in the
// order it was written (plan order).
type StatisticRow struct {
	Name    string
	Kind    string
	Value   float64
	Defined bool
}

// StoredCircuit is one circuit of a run joined with its content-addressed
// body row.
type StoredCircuit struct {
	Position int
	Hash     string
	Label    string
	Qubits   int
	Clbits   int
	Body     string
}

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows (wrapped) if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, family, backend, shots, catalog_hash, created_at, verdict, deviation, reason
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("read run %q: %w", id, err)
	}
	return run, nil
}

// ListRuns executes a compiled runs query (see internal/querysql) and scans
// the rows. The query must select the full runs column set in table order.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: iterate: %w", err)
	}

	return runs, nil
}

// ReadHistograms returns a run's decoded histograms keyed by circuit label.
func (s *Store) ReadHistograms(ctx context.Context, runID string) (map[string]counts.Histogram, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, width, shots, counts
		FROM histograms
		WHERE run_id = ?
		ORDER BY label COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read histograms: %w", err)
	}
	defer rows.Close()

	hists := map[string]counts.Histogram{}
	for rows.Next() {
		var label, countsJSON string
		var width, shots int
		if err := rows.Scan(&label, &width, &shots, &countsJSON); err != nil {
			return nil, fmt.Errorf("read histograms: scan: %w", err)
		}
		h, err := unmarshalCounts(countsJSON, width, shots)
		if err != nil {
			return nil, fmt.Errorf("read histograms: %q: %w", label, err)
		}
		hists[label] = h
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read histograms: iterate: %w", err)
	}

	return hists, nil
}

// ReadStatistics returns a run's flattened statistics in write order.
func (s *Store) ReadStatistics(ctx context.Context, runID string) ([]StatisticRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, kind, value, defined
		FROM run_statistics
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read statistics: %w", err)
	}
	defer rows.Close()

	statistics := []StatisticRow{}
	for rows.Next() {
		var row StatisticRow
		if err := rows.Scan(&row.Name, &row.Kind, &row.Value, &row.Defined); err != nil {
			return nil, fmt.Errorf("read statistics: scan: %w", err)
		}
		statistics = append(statistics, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read statistics: iterate: %w", err)
	}

	return statistics, nil
}

// ReadRunCircuits returns a run's circuits in submission order.
func (s *Store) ReadRunCircuits(ctx context.Context, runID string) ([]StoredCircuit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rc.position, c.hash, c.label, c.qubits, c.clbits, c.body
		FROM run_circuits rc
		JOIN circuits c ON rc.circuit_hash = c.hash
		WHERE rc.run_id = ?
		ORDER BY rc.position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read run circuits: %w", err)
	}
	defer rows.Close()

	stored := []StoredCircuit{}
	for rows.Next() {
		var sc StoredCircuit
		if err := rows.Scan(&sc.Position, &sc.Hash, &sc.Label, &sc.Qubits, &sc.Clbits, &sc.Body); err != nil {
			return nil, fmt.Errorf("read run circuits: scan: %w", err)
		}
		stored = append(stored, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read run circuits: iterate: %w", err)
	}

	return stored, nil
}

// scanner abstracts over *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans one runs row. The column order is fixed: id, name, family,
// backend, shots, catalog_hash, created_at, verdict, deviation, reason.
func scanRun(row scanner) (Run, error) {
	var run Run
	var createdAt string
	if err := row.Scan(
		&run.ID, &run.Name, &run.Family, &run.Backend, &run.Shots,
		&run.CatalogHash, &createdAt, &run.Verdict, &run.Deviation, &run.Reason,
	); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(TimeFormat, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	run.CreatedAt = t
	return run, nil
}
