// Package store provides SQLite-backed durable storage for experiment runs.
//
// One run produces one row in runs plus its satellite rows:
//   - circuits: content-addressed circuit bodies, deduplicated across runs
//   - run_circuits: the run's circuits in submission order
//   - histograms: decoded counts per circuit label
//   - run_statistics: flattened scalar statistics in plan order
//
// Everything a run persists is written in a single transaction
// (WriteOutcome), so a crash never leaves a partial run behind.
//
// Reads are deterministic: list queries order by id ASC COLLATE BINARY, and
// stored histograms round-trip exactly (canonical JSON, integer counts, no
// floats). Replaying a stored run therefore recomputes identical statistics.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Circuit hashes come from internal/circuit (RFC 8785 canonical JSON,
// SHA-256 with domain separation); the catalog hash recorded on each run
// comes from internal/catalog the same way.
package store
