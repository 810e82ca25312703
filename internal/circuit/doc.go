// Package circuit provides the abstract circuit description passed to
// execution backends.
//
// This package contains type definitions and identity computation only.
// Every other internal package may import circuit; circuit imports nothing
// internal. This keeps the circuit description the foundational layer with
// no circular dependencies.
//
// Key design constraints:
//   - A Circuit is treated as immutable once a generator hands it off.
//   - Gate kinds form a closed set; backends reject anything else.
//   - Rotation angles are the only floating-point payload; canonical
//     encoding renders them as shortest round-trip decimal strings so the
//     content-addressed identity stays byte-stable.
package circuit
