// Package experiment defines the typed experiment configuration: family
// tags, per-family parameters, verdict thresholds, and the measurement plan
// that maps circuit labels to statistic derivations.
//
// Config values come out of the catalog compiler already validated; the
// runner re-validates defensively because configs can also be constructed
// directly (tests, the analyze command).
package experiment

import "fmt"

// Family tags the experiment recipe. The set is closed; Validate rejects
// anything else.
type Family string

const (
	FamilyCHSH       Family = "chsh"
	FamilyGHZ        Family = "ghz"
	FamilyHardy      Family = "hardy"
	FamilyZeno       Family = "zeno"
	FamilyPigeonhole Family = "pigeonhole"
	FamilyBomb       Family = "bomb"
	FamilyEraser     Family = "eraser"
	FamilyCat        Family = "cat"
	FamilyReversal   Family = "reversal"
)

// Families lists every known family in catalog order.
func Families() []Family {
	return []Family{
		FamilyCHSH, FamilyGHZ, FamilyHardy, FamilyZeno, FamilyPigeonhole,
		FamilyBomb, FamilyEraser, FamilyCat, FamilyReversal,
	}
}

// KnownFamily reports whether f is one of the closed family set.
func KnownFamily(f Family) bool {
	for _, known := range Families() {
		if f == known {
			return true
		}
	}
	return false
}

// Zeno generator modes. Survival records every checkpoint into its own
// classical bit; reset collapses back to ground after each checkpoint and
// keeps a single bit.
const (
	ZenoSurvival = "survival"
	ZenoReset    = "reset"
)

// Thresholds are the classifier's decision constants. They are
// configuration, not code: the catalog sets per-family defaults and tests
// probe boundary behavior by adjusting them.
type Thresholds struct {
	// Margin is the primary decision margin. Its meaning is per family:
	// chsh: excess of |S| over the classical bound; zeno: required survival
	// gain over the unobserved case; hardy/bomb: minimum paradox
	// probability; ghz/pigeonhole/eraser: required fraction margin.
	Margin float64 `json:"margin"`
	// WeakWindow is the half-width of the "consistent with 0.5" band used
	// where a marginal must stay unbiased (eraser).
	WeakWindow float64 `json:"weak_window"`
	// Cutoff is the acceptance floor for fraction-valued statistics
	// (ghz parity, cat fidelity).
	Cutoff float64 `json:"cutoff"`
}

// DefaultThresholds returns the family's default decision constants. The
// embedded default catalog carries the same numbers; a catalog test keeps
// the two in sync. The classifier falls back to these for zero-valued
// threshold fields so hand-built configs classify sensibly.
func DefaultThresholds(f Family) Thresholds {
	switch f {
	case FamilyCHSH:
		return Thresholds{Margin: 0.05}
	case FamilyGHZ:
		return Thresholds{Margin: 0.1, Cutoff: 0.5}
	case FamilyHardy:
		return Thresholds{Margin: 0.02}
	case FamilyZeno:
		return Thresholds{Margin: 0.05}
	case FamilyPigeonhole:
		return Thresholds{Margin: 0.05}
	case FamilyBomb:
		return Thresholds{Margin: 0.05}
	case FamilyEraser:
		return Thresholds{Margin: 0.3, WeakWindow: 0.1}
	case FamilyCat:
		return Thresholds{Cutoff: 0.9}
	case FamilyReversal:
		return Thresholds{Margin: 0.05}
	default:
		return Thresholds{}
	}
}

// EffectiveThresholds fills zero-valued fields of cfg.Thresholds from the
// family defaults.
func EffectiveThresholds(cfg Config) Thresholds {
	th := cfg.Thresholds
	def := DefaultThresholds(cfg.Family)
	if th.Margin == 0 {
		th.Margin = def.Margin
	}
	if th.WeakWindow == 0 {
		th.WeakWindow = def.WeakWindow
	}
	if th.Cutoff == 0 {
		th.Cutoff = def.Cutoff
	}
	return th
}

// Config is one experiment entry: everything the pipeline needs to generate
// circuits, derive statistics, predict references, and classify. Immutable
// after construction.
type Config struct {
	Name   string `json:"name"`
	Family Family `json:"family"`
	Shots  int    `json:"shots"`

	// Angle is the total rotation θ for the zeno family, in radians.
	Angle float64 `json:"angle,omitempty"`
	// Checkpoints lists the intermediate measurement counts N the zeno
	// family generates one staged circuit for.
	Checkpoints []int `json:"checkpoints,omitempty"`
	// Mode selects the zeno circuit shape: ZenoSurvival or ZenoReset.
	Mode string `json:"mode,omitempty"`
	// Delays lists the identity-gate delays the cat family generates one
	// decoherence circuit for.
	Delays []int `json:"delays,omitempty"`
	// Stages is the number of weak-interrogation rounds in the bomb
	// family's enhanced circuit.
	Stages int `json:"stages,omitempty"`

	Thresholds Thresholds `json:"thresholds"`
}

// Label helpers shared by the generator (which emits circuits) and the plan
// (which consumes their histograms). Keeping them here guarantees the two
// sides never drift.

// ZenoLabel names one staged zeno circuit for checkpoint count n.
func ZenoLabel(mode string, n int) string {
	if mode == ZenoSurvival {
		return fmt.Sprintf("survival_%d", n)
	}
	return fmt.Sprintf("zeno_%d", n)
}

// LabelUnobserved is the zeno family's free-evolution control circuit.
const LabelUnobserved = "unobserved"

// DecoherenceLabel names one cat-family delay circuit.
func DecoherenceLabel(delay int) string {
	return fmt.Sprintf("decoherence_%d", delay)
}
