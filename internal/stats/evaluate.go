package stats

import (
	"fmt"

	"github.com/roach88/paradox/internal/counts"
	"github.com/roach88/paradox/internal/experiment"
)

// FromPlan evaluates one plan row against the labeled histograms. A label
// the decoder never produced is a wiring error in the runner, not a data
// condition, so it returns an error instead of a zero statistic.
func FromPlan(plan experiment.StatPlan, hists map[string]counts.Histogram) (Statistic, error) {
	lookup := func(label string) (counts.Histogram, error) {
		h, ok := hists[label]
		if !ok {
			return counts.Histogram{}, fmt.Errorf("statistic %q: no histogram for label %q", plan.Name, label)
		}
		return h, nil
	}

	switch plan.Kind {
	case experiment.StatCorrelator:
		h, err := lookup(plan.Labels[0])
		if err != nil {
			return nil, err
		}
		return NewCorrelator(plan.Name, h), nil

	case experiment.StatCHSH:
		if len(plan.Labels) != 4 {
			return nil, fmt.Errorf("statistic %q: chsh needs 4 labels, got %d", plan.Name, len(plan.Labels))
		}
		var terms [4]Correlator
		for i, label := range plan.Labels {
			h, err := lookup(label)
			if err != nil {
				return nil, err
			}
			terms[i] = NewCorrelator(label, h)
		}
		return NewCHSH(plan.Name, terms), nil

	case experiment.StatParity:
		h, err := lookup(plan.Labels[0])
		if err != nil {
			return nil, err
		}
		return NewParity(plan.Name, h), nil

	case experiment.StatPairShare:
		h, err := lookup(plan.Labels[0])
		if err != nil {
			return nil, err
		}
		if h.Width() != 3 {
			return nil, fmt.Errorf("statistic %q: pair share needs 3-bit histograms, got width %d", plan.Name, h.Width())
		}
		return NewPairShare(plan.Name, h), nil

	case experiment.StatSurvival:
		h, err := lookup(plan.Labels[0])
		if err != nil {
			return nil, err
		}
		return NewSurvival(plan.Name, h), nil

	case experiment.StatFinalBit:
		h, err := lookup(plan.Labels[0])
		if err != nil {
			return nil, err
		}
		return NewFinalBit(plan.Name, h), nil

	case experiment.StatFidelity:
		h, err := lookup(plan.Labels[0])
		if err != nil {
			return nil, err
		}
		return NewFidelity(plan.Name, h), nil

	case experiment.StatOutcome:
		h, err := lookup(plan.Labels[0])
		if err != nil {
			return nil, err
		}
		return NewOutcome(plan.Name, plan.Bitstring, h), nil

	case experiment.StatConditional:
		h, err := lookup(plan.Labels[0])
		if err != nil {
			return nil, err
		}
		if plan.Signal == plan.Cond || plan.Signal >= h.Width() || plan.Cond >= h.Width() {
			return nil, fmt.Errorf("statistic %q: conditional positions (%d, %d) invalid for width %d",
				plan.Name, plan.Signal, plan.Cond, h.Width())
		}
		return NewConditional(plan.Name, plan.Signal, plan.Cond, h), nil

	default:
		return nil, fmt.Errorf("statistic %q: unknown kind %q", plan.Name, plan.Kind)
	}
}

// Evaluate runs every plan row in order.
func Evaluate(plans []experiment.StatPlan, hists map[string]counts.Histogram) ([]Statistic, error) {
	out := make([]Statistic, 0, len(plans))
	for _, plan := range plans {
		s, err := FromPlan(plan, hists)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Lookup finds a statistic by plan name.
func Lookup(statistics []Statistic, name string) (Statistic, bool) {
	for _, s := range statistics {
		if s.StatName() == name {
			return s, true
		}
	}
	return nil, false
}

// Scalar is one flattened statistic value for storage and reporting.
type Scalar struct {
	Name    string
	Kind    experiment.StatKind
	Value   float64
	Defined bool
}

// Flatten lowers statistics to named scalars. Multi-valued variants emit
// one scalar per component with a suffixed name; the suffixes are part of
// the storage format and must stay stable.
func Flatten(statistics []Statistic) []Scalar {
	var out []Scalar
	add := func(name string, kind experiment.StatKind, value float64, defined bool) {
		out = append(out, Scalar{Name: name, Kind: kind, Value: value, Defined: defined})
	}
	for _, s := range statistics {
		switch v := s.(type) {
		case Correlator:
			add(v.Name, v.StatKind(), v.E, v.Defined)
		case CHSH:
			add(v.Name, v.StatKind(), v.S, v.Defined)
		case Parity:
			add(v.Name+"_even", v.StatKind(), v.Even, v.Defined)
			add(v.Name+"_odd", v.StatKind(), v.Odd, v.Defined)
		case PairShare:
			add(v.Name+"_01", v.StatKind(), v.Pair01, v.Defined)
			add(v.Name+"_12", v.StatKind(), v.Pair12, v.Defined)
			add(v.Name+"_02", v.StatKind(), v.Pair02, v.Defined)
			add(v.Name+"_any", v.StatKind(), v.Any, v.Defined)
		case Survival:
			add(v.Name, v.StatKind(), v.P, v.Defined)
		case FinalBit:
			add(v.Name+"_p0", v.StatKind(), v.P0, v.Defined)
			add(v.Name+"_p1", v.StatKind(), v.P1, v.Defined)
		case Fidelity:
			add(v.Name, v.StatKind(), v.P, v.Defined)
		case Outcome:
			add(v.Name, v.StatKind(), v.P, v.Defined)
		case Conditional:
			add(v.Name+"_given0", v.StatKind(), v.Given0, v.Defined)
			add(v.Name+"_given1", v.StatKind(), v.Given1, v.Defined)
			add(v.Name+"_marginal", v.StatKind(), v.Marginal, v.Defined)
		}
	}
	return out
}
