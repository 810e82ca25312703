// Package backend defines the execution boundary: submitting circuits for a
// number of shots and getting per-circuit measurement counts back.
//
// The pipeline never talks to real quantum hardware directly. Everything is
// behind the Backend interface so runs can replay recorded counts, drive
// deterministic test doubles, or (elsewhere) wrap a vendor client.
package backend

import (
	"context"

	"github.com/roach88/paradox/internal/circuit"
)

// Backend executes circuits. Submit is the only blocking boundary in the
// pipeline; implementations must honor ctx cancellation and return results
// in the same order as the submitted circuits.
type Backend interface {
	// Submit runs every circuit for the given shot count and returns one
	// Result per circuit, same order. An error means the whole batch
	// failed; partial results are never returned.
	Submit(ctx context.Context, circuits []circuit.Circuit, shots int) ([]Result, error)

	// LeastBusy selects an execution target with at least minQubits
	// qubits. The pipeline only uses the answer for feasibility checks
	// and for recording which device a run landed on.
	LeastBusy(ctx context.Context, minQubits int) (Descriptor, error)
}

// Result exposes one circuit's measurement counts keyed by classical
// register. Execution services disagree about register naming, so the
// decoder probes candidates via Counts and falls back to scanning
// Registers.
type Result interface {
	// Counts returns the bitstring histogram stored under the named
	// register, and whether that register exists.
	Counts(register string) (map[string]int, bool)

	// Registers lists every register this result carries, in no
	// particular order.
	Registers() []string
}

// Descriptor identifies an execution target.
type Descriptor struct {
	Name   string `json:"name"`
	Qubits int    `json:"qubits"`
}
