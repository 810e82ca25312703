// Package generator builds the circuit list for one experiment config. Each
// family is a fixed recipe from the original experiments; the config only
// parameterizes counts and angles (zeno checkpoints, cat delays, bomb
// stages). Generation is pure: identical configs yield identical circuits.
package generator

import (
	"fmt"
	"math"

	"github.com/roach88/paradox/internal/circuit"
	"github.com/roach88/paradox/internal/experiment"
)

// Generate returns the family's circuits in submission order. Labels are
// unique within the list and match the names the family's measurement plan
// consumes. An unknown family is a contract violation.
func Generate(cfg experiment.Config) ([]circuit.Circuit, error) {
	switch cfg.Family {
	case experiment.FamilyCHSH:
		return chshCircuits(), nil
	case experiment.FamilyGHZ:
		return ghzCircuits(), nil
	case experiment.FamilyHardy:
		return hardyCircuits(), nil
	case experiment.FamilyZeno:
		return zenoCircuits(cfg)
	case experiment.FamilyPigeonhole:
		return pigeonholeCircuits(), nil
	case experiment.FamilyBomb:
		return bombCircuits(cfg)
	case experiment.FamilyEraser:
		return eraserCircuits(), nil
	case experiment.FamilyCat:
		return catCircuits(cfg)
	case experiment.FamilyReversal:
		return reversalCircuits(), nil
	default:
		return nil, fmt.Errorf("no circuit recipe for family %q", cfg.Family)
	}
}

// chshCircuits: Bell pair measured under the four optimal setting pairs,
// plus an unentangled product-state reference. Alice rotates qubit 0, Bob
// qubit 1; A0 measures straight Z.
func chshCircuits() []circuit.Circuit {
	settings := []struct {
		label string
		a, b  int
	}{
		{label: "A0B0", a: 0, b: 0},
		{label: "A0B1", a: 0, b: 1},
		{label: "A1B0", a: 1, b: 0},
		{label: "A1B1", a: 1, b: 1},
	}
	out := make([]circuit.Circuit, 0, len(settings)+1)
	for _, s := range settings {
		c := circuit.New(s.label, 2, 2).H(0).CX(0, 1)
		if s.a == 1 {
			c.RY(-math.Pi/4, 0)
		}
		if s.b == 0 {
			c.RY(-math.Pi/8, 1)
		} else {
			c.RY(-3*math.Pi/8, 1)
		}
		out = append(out, *c.MeasureAll())
	}
	out = append(out, *circuit.New("classical", 2, 2).MeasureAll())
	return out
}

// ghzCircuits: the three-qubit GHZ state measured in the five paradox bases.
// Basis changes per qubit: X is h, Y is sdg then h, Z measures directly.
func ghzCircuits() []circuit.Circuit {
	bases := []string{"ZZZ", "XXX", "XYY", "YXY", "YYX"}
	out := make([]circuit.Circuit, 0, len(bases))
	for _, basis := range bases {
		c := circuit.New(basis, 3, 3).H(0).CX(0, 1).CX(1, 2)
		for q, axis := range basis {
			switch axis {
			case 'X':
				c.H(q)
			case 'Y':
				c.Sdg(q).H(q)
			}
		}
		out = append(out, *c.MeasureAll())
	}
	return out
}

// hardyCircuits: the partially entangled Hardy state under its four basis
// combinations, plus the optimal-probability prep and the interferometric
// realization.
func hardyCircuits() []circuit.Circuit {
	prep := func(label string) *circuit.Circuit {
		return circuit.New(label, 2, 2).RY(math.Pi/3, 0).CX(0, 1).RY(-math.Pi/6, 1)
	}

	zz := prep("ZZ")
	xx := prep("XX").H(0).H(1)
	zx := prep("ZX").H(1)
	xz := prep("XZ").H(0)

	// sin²θ = (√5 − 1)/2: the golden-ratio angle maximizing P(11).
	thetaOpt := math.Asin(math.Sqrt((math.Sqrt(5) - 1) / 2))
	optimal := circuit.New("optimal", 2, 2).
		RY(2*thetaOpt, 0).CX(0, 1).RY(2*thetaOpt, 1).CX(0, 1)

	thetaP := math.Atan(1 / math.Sqrt2)
	paradox := circuit.New("paradox", 2, 2).
		RY(2*thetaP, 0).RY(math.Pi/2, 1).CZ(0, 1).RY(-math.Pi/4, 1)

	out := make([]circuit.Circuit, 0, 6)
	for _, c := range []*circuit.Circuit{zz, xx, zx, xz, optimal, paradox} {
		out = append(out, *c.MeasureAll())
	}
	return out
}

// zenoCircuits: one free-evolution control plus one staged circuit per
// checkpoint count. A checkpoint count of zero is the control itself, so it
// generates nothing extra; the per-step angle division would be undefined.
func zenoCircuits(cfg experiment.Config) ([]circuit.Circuit, error) {
	if cfg.Angle == 0 || math.IsNaN(cfg.Angle) || math.IsInf(cfg.Angle, 0) {
		return nil, fmt.Errorf("zeno angle %v violates the validated-config contract", cfg.Angle)
	}

	out := []circuit.Circuit{
		*circuit.New(experiment.LabelUnobserved, 1, 1).RY(cfg.Angle, 0).Measure(0, 0),
	}
	for _, n := range cfg.Checkpoints {
		if n <= 0 {
			continue
		}
		label := experiment.ZenoLabel(cfg.Mode, n)
		if cfg.Mode == experiment.ZenoSurvival {
			step := cfg.Angle / float64(n+1)
			c := circuit.New(label, 1, n+1)
			for i := 0; i < n; i++ {
				c.RY(step, 0).Measure(0, i)
			}
			out = append(out, *c.RY(step, 0).Measure(0, n))
			continue
		}
		step := cfg.Angle / float64(n)
		c := circuit.New(label, 1, 1)
		for i := 0; i < n; i++ {
			c.RY(step, 0).Measure(0, 0).Reset(0)
		}
		out = append(out, *c.RY(step, 0).Measure(0, 0))
	}
	return out, nil
}

// pigeonholeCircuits: three pigeons in two boxes. The classical run measures
// the uniform superposition directly; the quantum run inserts pairwise
// phase correlations between the two basis layers; the weak run couples an
// ancilla to the first pair instead.
func pigeonholeCircuits() []circuit.Circuit {
	classical := circuit.New("classical", 3, 3).H(0).H(1).H(2).MeasureAll()

	quantum := circuit.New("quantum", 3, 3).
		H(0).H(1).H(2).
		CZ(0, 1).CZ(1, 2).CZ(0, 2).
		H(0).H(1).H(2).
		MeasureAll()

	weak := circuit.New("weak_measure", 4, 4).
		H(0).H(1).H(2).
		CX(0, 3).CX(1, 3).
		H(0).H(1).H(2).
		MeasureAll()

	return []circuit.Circuit{*classical, *quantum, *weak}
}

// bombCircuits: Mach–Zehnder interferometer without a bomb, with a live
// bomb coupled to the second qubit, and the staged weak-interrogation
// variant with cfg.Stages rounds.
func bombCircuits(cfg experiment.Config) ([]circuit.Circuit, error) {
	if cfg.Stages < 1 {
		return nil, fmt.Errorf("bomb stages %d violates the validated-config contract", cfg.Stages)
	}

	noBomb := circuit.New("no_bomb", 1, 1).H(0).H(0).Measure(0, 0)
	bombTest := circuit.New("bomb_test", 2, 2).H(0).CX(0, 1).H(0).MeasureAll()

	step := math.Pi / (2 * float64(cfg.Stages))
	enhanced := circuit.New("enhanced", 2, 2)
	for i := 0; i < cfg.Stages; i++ {
		enhanced.RY(step, 0).CX(0, 1)
	}
	enhanced.MeasureAll()

	return []circuit.Circuit{*noBomb, *bombTest, *enhanced}, nil
}

// eraserCircuits: double-slit analog on the signal qubit with the idler as
// the which-path marker. The erased variants differ only in when the idler
// basis change happens relative to the signal measurement; the barrier in
// delayed_choice marks that ordering constraint.
func eraserCircuits() []circuit.Circuit {
	interference := circuit.New("interference", 1, 1).H(0).H(0).Measure(0, 0)

	whichPath := circuit.New("which_path", 2, 2).H(0).CX(0, 1).H(0).MeasureAll()

	eraser := circuit.New("eraser", 2, 2).H(0).CX(0, 1).H(1).H(0).MeasureAll()

	delayed := circuit.New("delayed_choice", 2, 2).
		H(0).CX(0, 1).H(0).Measure(0, 0).
		Barrier().
		H(1).Measure(1, 1)

	return []circuit.Circuit{*interference, *whichPath, *eraser, *delayed}
}

// catCircuits: superpositions of growing size plus identity-delay circuits
// that accumulate hardware decoherence.
func catCircuits(cfg experiment.Config) ([]circuit.Circuit, error) {
	out := []circuit.Circuit{
		*circuit.New("basic_cat", 1, 1).H(0).Measure(0, 0),
		*circuit.New("entangled_cat", 2, 2).H(0).CX(0, 1).MeasureAll(),
		*ghzFanOut("ghz_3", 3),
		*ghzFanOut("ghz_5", 5),
	}
	for _, d := range cfg.Delays {
		if d < 0 {
			return nil, fmt.Errorf("cat delay %d violates the validated-config contract", d)
		}
		c := circuit.New(experiment.DecoherenceLabel(d), 1, 1).H(0)
		for i := 0; i < d; i++ {
			c.I(0)
		}
		out = append(out, *c.Measure(0, 0))
	}
	return out, nil
}

func ghzFanOut(label string, n int) *circuit.Circuit {
	c := circuit.New(label, n, n).H(0)
	for i := 1; i < n; i++ {
		c.CX(0, i)
	}
	return c.MeasureAll()
}

// reversalCircuits: forward observer chain then its exact inverse. A
// successful reversal concentrates all weight back on the initial state.
func reversalCircuits() []circuit.Circuit {
	c := circuit.New("full_reversal", 4, 4).
		H(0).CX(0, 1).CX(0, 2).CX(1, 2).
		CX(1, 2).CX(0, 2).CX(0, 1).H(0).
		MeasureAll()
	return []circuit.Circuit{*c}
}
