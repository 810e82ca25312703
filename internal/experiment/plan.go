package experiment

import "fmt"

// StatKind tags one statistic derivation. The statistics engine dispatches
// on it; the store records it next to every flattened value.
type StatKind string

const (
	StatCorrelator  StatKind = "correlator"
	StatCHSH        StatKind = "chsh"
	StatParity      StatKind = "parity"
	StatPairShare   StatKind = "pair_share"
	StatSurvival    StatKind = "survival"
	StatFinalBit    StatKind = "final_bit"
	StatFidelity    StatKind = "fidelity"
	StatOutcome     StatKind = "outcome"
	StatConditional StatKind = "conditional"
)

// StatPlan is one row of a family's measurement plan: derive the named
// statistic of the given kind from the histograms of the listed circuit
// labels. Exactly one label except for the chsh combination, which consumes
// its four setting-pair histograms in order.
type StatPlan struct {
	Kind   StatKind
	Name   string
	Labels []string

	// Bitstring designates the outcome for StatOutcome.
	Bitstring string
	// Signal and Cond are character positions (from the left) for
	// StatConditional.
	Signal, Cond int
}

// Plan returns the family's measurement plan in evaluation order. The plan
// is pure configuration data: adding a family means adding a case here and
// a recipe to the generator, nothing else.
func Plan(cfg Config) ([]StatPlan, error) {
	switch cfg.Family {
	case FamilyCHSH:
		return []StatPlan{
			{Kind: StatCorrelator, Name: "E_A0B0", Labels: []string{"A0B0"}},
			{Kind: StatCorrelator, Name: "E_A0B1", Labels: []string{"A0B1"}},
			{Kind: StatCorrelator, Name: "E_A1B0", Labels: []string{"A1B0"}},
			{Kind: StatCorrelator, Name: "E_A1B1", Labels: []string{"A1B1"}},
			{Kind: StatCHSH, Name: "S", Labels: []string{"A0B0", "A0B1", "A1B0", "A1B1"}},
			{Kind: StatCorrelator, Name: "E_classical", Labels: []string{"classical"}},
		}, nil

	case FamilyGHZ:
		return []StatPlan{
			{Kind: StatFidelity, Name: "fidelity_ZZZ", Labels: []string{"ZZZ"}},
			{Kind: StatParity, Name: "parity_XXX", Labels: []string{"XXX"}},
			{Kind: StatParity, Name: "parity_XYY", Labels: []string{"XYY"}},
			{Kind: StatParity, Name: "parity_YXY", Labels: []string{"YXY"}},
			{Kind: StatParity, Name: "parity_YYX", Labels: []string{"YYX"}},
		}, nil

	case FamilyHardy:
		return []StatPlan{
			{Kind: StatOutcome, Name: "p11_ZZ", Labels: []string{"ZZ"}, Bitstring: "11"},
			{Kind: StatOutcome, Name: "p11_XX", Labels: []string{"XX"}, Bitstring: "11"},
			{Kind: StatOutcome, Name: "p11_ZX", Labels: []string{"ZX"}, Bitstring: "11"},
			{Kind: StatOutcome, Name: "p11_XZ", Labels: []string{"XZ"}, Bitstring: "11"},
			{Kind: StatOutcome, Name: "p11_optimal", Labels: []string{"optimal"}, Bitstring: "11"},
			{Kind: StatOutcome, Name: "p11_paradox", Labels: []string{"paradox"}, Bitstring: "11"},
		}, nil

	case FamilyZeno:
		plans := []StatPlan{
			{Kind: StatFinalBit, Name: LabelUnobserved, Labels: []string{LabelUnobserved}},
		}
		for _, n := range cfg.Checkpoints {
			label := ZenoLabel(cfg.Mode, n)
			kind := StatFinalBit
			if cfg.Mode == ZenoSurvival {
				kind = StatSurvival
			}
			plans = append(plans, StatPlan{Kind: kind, Name: label, Labels: []string{label}})
		}
		return plans, nil

	case FamilyPigeonhole:
		return []StatPlan{
			{Kind: StatPairShare, Name: "share_classical", Labels: []string{"classical"}},
			{Kind: StatPairShare, Name: "share_quantum", Labels: []string{"quantum"}},
			{Kind: StatOutcome, Name: "postselect_000", Labels: []string{"quantum"}, Bitstring: "000"},
			{Kind: StatOutcome, Name: "weak_postselect", Labels: []string{"weak_measure"}, Bitstring: "0000"},
		}, nil

	case FamilyBomb:
		return []StatPlan{
			{Kind: StatFinalBit, Name: "no_bomb", Labels: []string{"no_bomb"}},
			{Kind: StatOutcome, Name: "detected", Labels: []string{"bomb_test"}, Bitstring: "10"},
			{Kind: StatOutcome, Name: "exploded", Labels: []string{"bomb_test"}, Bitstring: "01"},
			{Kind: StatOutcome, Name: "no_info", Labels: []string{"bomb_test"}, Bitstring: "00"},
			{Kind: StatOutcome, Name: "enhanced_detected", Labels: []string{"enhanced"}, Bitstring: "10"},
		}, nil

	case FamilyEraser:
		return []StatPlan{
			{Kind: StatFinalBit, Name: "interference", Labels: []string{"interference"}},
			{Kind: StatConditional, Name: "which_path", Labels: []string{"which_path"}, Signal: 1, Cond: 0},
			{Kind: StatConditional, Name: "eraser", Labels: []string{"eraser"}, Signal: 1, Cond: 0},
			{Kind: StatConditional, Name: "delayed_choice", Labels: []string{"delayed_choice"}, Signal: 1, Cond: 0},
		}, nil

	case FamilyCat:
		plans := []StatPlan{
			{Kind: StatFinalBit, Name: "basic_cat", Labels: []string{"basic_cat"}},
			{Kind: StatFidelity, Name: "fidelity_entangled", Labels: []string{"entangled_cat"}},
			{Kind: StatFidelity, Name: "fidelity_ghz_3", Labels: []string{"ghz_3"}},
			{Kind: StatFidelity, Name: "fidelity_ghz_5", Labels: []string{"ghz_5"}},
		}
		for _, d := range cfg.Delays {
			label := DecoherenceLabel(d)
			plans = append(plans, StatPlan{Kind: StatFinalBit, Name: label, Labels: []string{label}})
		}
		return plans, nil

	case FamilyReversal:
		return []StatPlan{
			{Kind: StatOutcome, Name: "p_reversed", Labels: []string{"full_reversal"}, Bitstring: "0000"},
		}, nil

	default:
		return nil, fmt.Errorf("no measurement plan for family %q", cfg.Family)
	}
}
