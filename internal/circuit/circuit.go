package circuit

import (
	"fmt"
	"math"
)

// OpKind identifies one gate or instruction kind.
type OpKind string

// Supported instruction kinds. The set is closed: generators emit only
// these, and Validate rejects anything else.
const (
	OpH       OpKind = "h"
	OpX       OpKind = "x"
	OpS       OpKind = "s"
	OpSdg     OpKind = "sdg"
	OpRY      OpKind = "ry"
	OpCX      OpKind = "cx"
	OpCZ      OpKind = "cz"
	OpID      OpKind = "id"
	OpReset   OpKind = "reset"
	OpMeasure OpKind = "measure"
	OpBarrier OpKind = "barrier"
)

// Op is a single instruction: a gate kind, its target qubits, and the
// kind-specific payload (rotation angle for ry, classical bit for measure).
type Op struct {
	Kind   OpKind  `json:"kind"`
	Qubits []int   `json:"qubits"`
	Angle  float64 `json:"angle,omitempty"`
	Clbit  int     `json:"clbit,omitempty"`
}

// DefaultRegister is the classical register name circuits declare unless a
// generator overrides it. It matches the convention most execution services
// use for measure-all results.
const DefaultRegister = "meas"

// Circuit is an ordered gate program over a small qubit register plus the
// classical bits its measurements write into.
//
// Circuits are built by the generator that owns them and must be treated as
// immutable afterward: the same value is shared with the execution backend,
// the decoder, and the store.
type Circuit struct {
	Label    string `json:"label"`
	Qubits   int    `json:"qubits"`
	Clbits   int    `json:"clbits"`
	Register string `json:"register"`
	Ops      []Op   `json:"ops"`
}

// New returns an empty circuit with the given label and register sizes,
// declaring DefaultRegister as its primary classical register.
func New(label string, qubits, clbits int) *Circuit {
	return &Circuit{
		Label:    label,
		Qubits:   qubits,
		Clbits:   clbits,
		Register: DefaultRegister,
	}
}

// WithRegister renames the primary classical register and returns the
// circuit for chaining.
func (c *Circuit) WithRegister(name string) *Circuit {
	c.Register = name
	return c
}

func (c *Circuit) append(op Op) *Circuit {
	c.Ops = append(c.Ops, op)
	return c
}

// H applies a Hadamard gate.
func (c *Circuit) H(q int) *Circuit { return c.append(Op{Kind: OpH, Qubits: []int{q}}) }

// X applies a bit flip.
func (c *Circuit) X(q int) *Circuit { return c.append(Op{Kind: OpX, Qubits: []int{q}}) }

// S applies the phase gate.
func (c *Circuit) S(q int) *Circuit { return c.append(Op{Kind: OpS, Qubits: []int{q}}) }

// Sdg applies the inverse phase gate (used for Y-basis measurement).
func (c *Circuit) Sdg(q int) *Circuit { return c.append(Op{Kind: OpSdg, Qubits: []int{q}}) }

// RY applies a Y-axis rotation by theta radians.
func (c *Circuit) RY(theta float64, q int) *Circuit {
	return c.append(Op{Kind: OpRY, Qubits: []int{q}, Angle: theta})
}

// CX applies a controlled-X with the given control and target.
func (c *Circuit) CX(ctrl, tgt int) *Circuit {
	return c.append(Op{Kind: OpCX, Qubits: []int{ctrl, tgt}})
}

// CZ applies a controlled-Z between two qubits.
func (c *Circuit) CZ(a, b int) *Circuit {
	return c.append(Op{Kind: OpCZ, Qubits: []int{a, b}})
}

// I applies an identity (delay) gate.
func (c *Circuit) I(q int) *Circuit { return c.append(Op{Kind: OpID, Qubits: []int{q}}) }

// Reset returns a qubit to the ground state mid-circuit.
func (c *Circuit) Reset(q int) *Circuit { return c.append(Op{Kind: OpReset, Qubits: []int{q}}) }

// Measure records qubit q into classical bit cl.
func (c *Circuit) Measure(q, cl int) *Circuit {
	return c.append(Op{Kind: OpMeasure, Qubits: []int{q}, Clbit: cl})
}

// MeasureAll measures qubit i into classical bit i for every qubit.
// The circuit must declare at least as many classical bits as qubits.
func (c *Circuit) MeasureAll() *Circuit {
	for q := 0; q < c.Qubits; q++ {
		c.Measure(q, q)
	}
	return c
}

// Barrier inserts a scheduling barrier across all qubits.
func (c *Circuit) Barrier() *Circuit { return c.append(Op{Kind: OpBarrier}) }

// MeasureMap returns the qubit-to-classical-bit mapping the circuit's
// measure ops establish. When a qubit is measured more than once (staged
// circuits), the last write to each qubit wins.
func (c *Circuit) MeasureMap() map[int]int {
	m := make(map[int]int)
	for _, op := range c.Ops {
		if op.Kind == OpMeasure {
			m[op.Qubits[0]] = op.Clbit
		}
	}
	return m
}

// Measures reports whether the circuit contains at least one measure op.
func (c *Circuit) Measures() bool {
	for _, op := range c.Ops {
		if op.Kind == OpMeasure {
			return true
		}
	}
	return false
}

// arity returns the required qubit operand count per kind. Barrier is
// special-cased in Validate (it takes no explicit operands).
func arity(kind OpKind) (int, bool) {
	switch kind {
	case OpH, OpX, OpS, OpSdg, OpRY, OpID, OpReset, OpMeasure:
		return 1, true
	case OpCX, OpCZ:
		return 2, true
	default:
		return 0, false
	}
}

// Validate checks the structural invariants: non-empty label, positive
// register sizes, known op kinds, operand indices in range, finite angles,
// and at least one measurement. Generators call this on every circuit they
// emit; a failure is a programming error in the recipe, not a runtime
// condition.
func (c *Circuit) Validate() error {
	if c.Label == "" {
		return fmt.Errorf("circuit has no label")
	}
	if c.Qubits < 1 {
		return fmt.Errorf("circuit %q: qubit count %d < 1", c.Label, c.Qubits)
	}
	if c.Clbits < 1 {
		return fmt.Errorf("circuit %q: clbit count %d < 1", c.Label, c.Clbits)
	}
	if c.Register == "" {
		return fmt.Errorf("circuit %q: empty register name", c.Label)
	}
	for i, op := range c.Ops {
		if op.Kind == OpBarrier {
			continue
		}
		n, known := arity(op.Kind)
		if !known {
			return fmt.Errorf("circuit %q: op %d: unknown kind %q", c.Label, i, op.Kind)
		}
		if len(op.Qubits) != n {
			return fmt.Errorf("circuit %q: op %d (%s): got %d qubits, want %d",
				c.Label, i, op.Kind, len(op.Qubits), n)
		}
		for _, q := range op.Qubits {
			if q < 0 || q >= c.Qubits {
				return fmt.Errorf("circuit %q: op %d (%s): qubit %d out of range [0,%d)",
					c.Label, i, op.Kind, q, c.Qubits)
			}
		}
		if n == 2 && op.Qubits[0] == op.Qubits[1] {
			return fmt.Errorf("circuit %q: op %d (%s): duplicate qubit %d",
				c.Label, i, op.Kind, op.Qubits[0])
		}
		switch op.Kind {
		case OpRY:
			if math.IsNaN(op.Angle) || math.IsInf(op.Angle, 0) {
				return fmt.Errorf("circuit %q: op %d: non-finite angle", c.Label, i)
			}
		case OpMeasure:
			if op.Clbit < 0 || op.Clbit >= c.Clbits {
				return fmt.Errorf("circuit %q: op %d: clbit %d out of range [0,%d)",
					c.Label, i, op.Clbit, c.Clbits)
			}
		}
	}
	if !c.Measures() {
		return fmt.Errorf("circuit %q: no measurement", c.Label)
	}
	return nil
}
