// Package harness replays recorded-count scenarios through the full
// pipeline and checks the outcome against declared expectations.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: chsh
//	description: "Bell pair at the optimal settings crosses the bound"
//	experiment: chsh
//	counts:
//	  A0B0: {"00": 512, "11": 256, "01": 128, "10": 128}
//	  A0B1: {"00": 512, "11": 256, "01": 128, "10": 128}
//	expect:
//	  verdict: violation-confirmed
//	  deviation: {value: 0.25}
//	  statistics:
//	    - name: S
//	      value: 2.25
//
// The experiment field names a catalog entry; the counts map must cover
// every circuit label that entry generates. Statistic names refer to the
// flattened scalar names (parity_XXX_odd, share_quantum_any), and value
// tolerances default to 1e-9 when omitted.
//
// # Determinism
//
// Every scenario runs against a fresh in-memory database with a pinned
// clock and a constant run ID, so the produced trace is byte-stable and
// suitable for golden comparison:
//
//	go test ./internal/harness -update
//
// regenerates the golden files from current behavior.
package harness
