package circuit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderChainsOps(t *testing.T) {
	c := New("bell", 2, 2).H(0).CX(0, 1).Barrier().MeasureAll()

	require.NoError(t, c.Validate())
	assert.Equal(t, "bell", c.Label)
	assert.Equal(t, DefaultRegister, c.Register)
	require.Len(t, c.Ops, 5)
	assert.Equal(t, OpH, c.Ops[0].Kind)
	assert.Equal(t, OpCX, c.Ops[1].Kind)
	assert.Equal(t, []int{0, 1}, c.Ops[1].Qubits)
	assert.Equal(t, OpBarrier, c.Ops[2].Kind)
	assert.Equal(t, OpMeasure, c.Ops[3].Kind)
	assert.Equal(t, 1, c.Ops[4].Clbit)
}

func TestWithRegisterRenames(t *testing.T) {
	c := New("x", 1, 1).WithRegister("c0").H(0).Measure(0, 0)

	require.NoError(t, c.Validate())
	assert.Equal(t, "c0", c.Register)
}

func TestMeasureMapLastWriteWins(t *testing.T) {
	// Staged circuits measure the same qubit repeatedly into bit 0.
	c := New("staged", 1, 1).
		RY(math.Pi/4, 0).Measure(0, 0).Reset(0).
		RY(math.Pi/4, 0).Measure(0, 0)

	require.NoError(t, c.Validate())
	assert.Equal(t, map[int]int{0: 0}, c.MeasureMap())
}

func TestMeasureMapMultiBit(t *testing.T) {
	c := New("survival", 1, 3).
		RY(1, 0).Measure(0, 0).
		RY(1, 0).Measure(0, 1).
		RY(1, 0).Measure(0, 2)

	require.NoError(t, c.Validate())
	assert.Equal(t, map[int]int{0: 2}, c.MeasureMap())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		circuit *Circuit
		wantErr string
	}{
		{
			name:    "empty label",
			circuit: New("", 1, 1).H(0).Measure(0, 0),
			wantErr: "no label",
		},
		{
			name:    "zero qubits",
			circuit: New("c", 0, 1).Measure(0, 0),
			wantErr: "qubit count",
		},
		{
			name:    "zero clbits",
			circuit: New("c", 1, 0).H(0).Measure(0, 0),
			wantErr: "clbit count",
		},
		{
			name:    "empty register",
			circuit: New("c", 1, 1).WithRegister("").H(0).Measure(0, 0),
			wantErr: "register name",
		},
		{
			name: "unknown kind",
			circuit: func() *Circuit {
				c := New("c", 1, 1).Measure(0, 0)
				c.Ops = append(c.Ops, Op{Kind: OpKind("ccx"), Qubits: []int{0}})
				return c
			}(),
			wantErr: "unknown kind",
		},
		{
			name:    "qubit out of range",
			circuit: New("c", 2, 2).H(2).MeasureAll(),
			wantErr: "out of range",
		},
		{
			name:    "duplicate two-qubit operand",
			circuit: New("c", 2, 2).CX(1, 1).MeasureAll(),
			wantErr: "duplicate qubit",
		},
		{
			name:    "non-finite angle",
			circuit: New("c", 1, 1).RY(math.NaN(), 0).Measure(0, 0),
			wantErr: "non-finite angle",
		},
		{
			name:    "clbit out of range",
			circuit: New("c", 1, 1).H(0).Measure(0, 1),
			wantErr: "clbit 1 out of range",
		},
		{
			name:    "no measurement",
			circuit: New("c", 1, 1).H(0),
			wantErr: "no measurement",
		},
		{
			name: "wrong operand count",
			circuit: func() *Circuit {
				c := New("c", 2, 2).MeasureAll()
				c.Ops = append(c.Ops, Op{Kind: OpCX, Qubits: []int{0}})
				return c
			}(),
			wantErr: "got 1 qubits, want 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.circuit.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAcceptsEveryKind(t *testing.T) {
	c := New("all-kinds", 2, 2).
		H(0).X(0).S(0).Sdg(0).RY(-3*math.Pi/8, 1).
		CX(0, 1).CZ(0, 1).I(0).Barrier().
		Reset(0).MeasureAll()

	assert.NoError(t, c.Validate())
}

func TestMeasuresDetection(t *testing.T) {
	assert.False(t, New("c", 1, 1).H(0).Measures())
	assert.True(t, New("c", 1, 1).H(0).Measure(0, 0).Measures())
}
