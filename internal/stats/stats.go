// Package stats derives scalar statistics from shot histograms.
//
// Every derivation is a pure function over immutable counts.Histogram
// values. Degenerate input (a histogram whose total is zero) never panics
// or divides: the resulting statistic carries Defined=false and zero
// values, and the classifier downgrades to "no data".
package stats

import (
	"strings"

	"github.com/roach88/paradox/internal/counts"
	"github.com/roach88/paradox/internal/experiment"
)

// Statistic is the sealed result of one derivation.
//
// Only types in this package implement it. The marker method pattern
// prevents external implementations and keeps type switches in the
// classifier and the store exhaustive.
type Statistic interface {
	// StatName is the plan-assigned output name.
	StatName() string
	// StatKind tags the derivation that produced the value.
	StatKind() experiment.StatKind
	// IsDefined is false when the source histogram total was zero.
	IsDefined() bool

	statNode() // marker method; seals the interface to this package
}

// Correlator is the agree-minus-disagree statistic of a two-bit histogram:
// E = (P(00)+P(11)) − (P(01)+P(10)), in [-1, 1].
type Correlator struct {
	Name    string
	E       float64
	Defined bool
}

func (c Correlator) StatName() string { return c.Name }
func (Correlator) StatKind() experiment.StatKind { return experiment.StatCorrelator }
func (c Correlator) IsDefined() bool { return c.Defined }
func (Correlator) statNode() {}

// CHSH is the four-correlator combination
// S = E(A0B0) + E(A0B1) + E(A1B0) − E(A1B1).
type CHSH struct {
	Name    string
	S       float64
	Terms   [4]float64
	Defined bool
}

func (c CHSH) StatName() string { return c.Name }
func (CHSH) StatKind() experiment.StatKind { return experiment.StatCHSH }
func (c CHSH) IsDefined() bool { return c.Defined }
func (CHSH) statNode() {}

// Parity splits an n-bit histogram's weight by the parity of the 1-bit
// count of each outcome.
type Parity struct {
	Name    string
	Even    float64
	Odd     float64
	Defined bool
}

func (p Parity) StatName() string { return p.Name }
func (Parity) StatKind() experiment.StatKind { return experiment.StatParity }
func (p Parity) IsDefined() bool { return p.Defined }
func (Parity) statNode() {}

// PairShare reports, for a three-bit histogram, the weight fraction where
// each unordered character pair holds equal bits, plus "at least one pair".
type PairShare struct {
	Name    string
	Pair01  float64
	Pair12  float64
	Pair02  float64
	Any     float64
	Defined bool
}

func (p PairShare) StatName() string { return p.Name }
func (PairShare) StatKind() experiment.StatKind { return experiment.StatPairShare }
func (p PairShare) IsDefined() bool { return p.Defined }
func (PairShare) statNode() {}

// Survival is the weight fraction on the all-zero outcome: the probability
// every sequential checkpoint measured the ground state.
type Survival struct {
	Name    string
	P       float64
	Defined bool
}

func (s Survival) StatName() string { return s.Name }
func (Survival) StatKind() experiment.StatKind { return experiment.StatSurvival }
func (s Survival) IsDefined() bool { return s.Defined }
func (Survival) statNode() {}

// FinalBit is the marginal distribution of the last character of every
// outcome, the final measurement in staged circuits. Computed by grouping
// keys, never by re-binning, so no bit-order assumption is made beyond
// "last character = final measurement".
type FinalBit struct {
	Name    string
	P0      float64
	P1      float64
	Defined bool
}

func (f FinalBit) StatName() string { return f.Name }
func (FinalBit) StatKind() experiment.StatKind { return experiment.StatFinalBit }
func (f FinalBit) IsDefined() bool { return f.Defined }
func (FinalBit) statNode() {}

// Fidelity is P(all-zero) + P(all-one): how much weight sits on the two
// poles of a cat/GHZ prep.
type Fidelity struct {
	Name    string
	P       float64
	Defined bool
}

func (f Fidelity) StatName() string { return f.Name }
func (Fidelity) StatKind() experiment.StatKind { return experiment.StatFidelity }
func (f Fidelity) IsDefined() bool { return f.Defined }
func (Fidelity) statNode() {}

// Outcome is the probability of one designated bitstring.
type Outcome struct {
	Name      string
	Bitstring string
	P         float64
	Defined   bool
}

func (o Outcome) StatName() string { return o.Name }
func (Outcome) StatKind() experiment.StatKind { return experiment.StatOutcome }
func (o Outcome) IsDefined() bool { return o.Defined }
func (Outcome) statNode() {}

// Conditional is P(signal = 0) conditioned on each value of another
// character, plus the unconditioned signal marginal. An empty conditioning
// subset leaves that branch at zero.
type Conditional struct {
	Name     string
	Given0   float64
	Given1   float64
	Marginal float64
	Defined  bool
}

func (c Conditional) StatName() string { return c.Name }
func (Conditional) StatKind() experiment.StatKind { return experiment.StatConditional }
func (c Conditional) IsDefined() bool { return c.Defined }
func (Conditional) statNode() {}

// NewCorrelator derives E from a two-bit histogram.
func NewCorrelator(name string, h counts.Histogram) Correlator {
	if h.Total() == 0 {
		return Correlator{Name: name}
	}
	e := (h.P("00") + h.P("11")) - (h.P("01") + h.P("10"))
	return Correlator{Name: name, E: e, Defined: true}
}

// NewCHSH combines four correlators; the order fixes the sign structure:
// S = terms[0] + terms[1] + terms[2] − terms[3].
func NewCHSH(name string, terms [4]Correlator) CHSH {
	out := CHSH{Name: name, Defined: true}
	for i, t := range terms {
		out.Terms[i] = t.E
		if !t.Defined {
			out.Defined = false
		}
	}
	if !out.Defined {
		return CHSH{Name: name, Terms: out.Terms}
	}
	out.S = out.Terms[0] + out.Terms[1] + out.Terms[2] - out.Terms[3]
	return out
}

// NewParity derives the even/odd split of an n-bit histogram.
func NewParity(name string, h counts.Histogram) Parity {
	total := h.Total()
	if total == 0 {
		return Parity{Name: name}
	}
	var even, odd int
	for _, key := range h.Keys() {
		n := h.Count(key)
		if strings.Count(key, "1")%2 == 0 {
			even += n
		} else {
			odd += n
		}
	}
	return Parity{
		Name:    name,
		Even:    float64(even) / float64(total),
		Odd:     float64(odd) / float64(total),
		Defined: true,
	}
}

// NewPairShare derives the pair-equality fractions of a three-bit
// histogram. Character positions count from the left.
func NewPairShare(name string, h counts.Histogram) PairShare {
	total := h.Total()
	if total == 0 {
		return PairShare{Name: name}
	}
	var p01, p12, p02, any int
	for _, key := range h.Keys() {
		n := h.Count(key)
		b0, b1, b2 := key[0], key[1], key[2]
		if b0 == b1 {
			p01 += n
		}
		if b1 == b2 {
			p12 += n
		}
		if b0 == b2 {
			p02 += n
		}
		if b0 == b1 || b1 == b2 || b0 == b2 {
			any += n
		}
	}
	return PairShare{
		Name:    name,
		Pair01:  float64(p01) / float64(total),
		Pair12:  float64(p12) / float64(total),
		Pair02:  float64(p02) / float64(total),
		Any:     float64(any) / float64(total),
		Defined: true,
	}
}

// NewSurvival derives the all-zero weight fraction.
func NewSurvival(name string, h counts.Histogram) Survival {
	if h.Total() == 0 {
		return Survival{Name: name}
	}
	allZero := strings.Repeat("0", h.Width())
	return Survival{Name: name, P: h.P(allZero), Defined: true}
}

// NewFinalBit derives the final-measurement marginal.
func NewFinalBit(name string, h counts.Histogram) FinalBit {
	total := h.Total()
	if total == 0 {
		return FinalBit{Name: name}
	}
	var zero, one int
	for _, key := range h.Keys() {
		n := h.Count(key)
		if key[len(key)-1] == '0' {
			zero += n
		} else {
			one += n
		}
	}
	return FinalBit{
		Name:    name,
		P0:      float64(zero) / float64(total),
		P1:      float64(one) / float64(total),
		Defined: true,
	}
}

// NewFidelity derives P(all-zero) + P(all-one).
func NewFidelity(name string, h counts.Histogram) Fidelity {
	if h.Total() == 0 {
		return Fidelity{Name: name}
	}
	w := h.Width()
	p := h.P(strings.Repeat("0", w)) + h.P(strings.Repeat("1", w))
	return Fidelity{Name: name, P: p, Defined: true}
}

// NewOutcome derives the probability of one bitstring.
func NewOutcome(name, bitstring string, h counts.Histogram) Outcome {
	if h.Total() == 0 {
		return Outcome{Name: name, Bitstring: bitstring}
	}
	return Outcome{Name: name, Bitstring: bitstring, P: h.P(bitstring), Defined: true}
}

// NewConditional derives P(signal = 0 | cond = b) for both b plus the
// unconditioned marginal. signal and cond are character positions from the
// left; they must be within the histogram width and distinct (the plan
// guarantees this).
func NewConditional(name string, signal, cond int, h counts.Histogram) Conditional {
	total := h.Total()
	if total == 0 {
		return Conditional{Name: name}
	}
	var signal0, cond0, cond1, both00, signal0cond1 int
	for _, key := range h.Keys() {
		n := h.Count(key)
		s0 := key[signal] == '0'
		if s0 {
			signal0 += n
		}
		if key[cond] == '0' {
			cond0 += n
			if s0 {
				both00 += n
			}
		} else {
			cond1 += n
			if s0 {
				signal0cond1 += n
			}
		}
	}
	out := Conditional{
		Name:     name,
		Marginal: float64(signal0) / float64(total),
		Defined:  true,
	}
	if cond0 > 0 {
		out.Given0 = float64(both00) / float64(cond0)
	}
	if cond1 > 0 {
		out.Given1 = float64(signal0cond1) / float64(cond1)
	}
	return out
}
