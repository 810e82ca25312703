// Package verdict classifies measured statistics against the configured
// thresholds. Purely computational: no I/O, no logging, never a panic on
// missing data: an undefined required statistic degrades to not-observed.
package verdict

import (
	"fmt"
	"math"

	"github.com/roach88/paradox/internal/experiment"
	"github.com/roach88/paradox/internal/predict"
	"github.com/roach88/paradox/internal/stats"
)

// Status is the closed verdict set.
type Status string

const (
	// StatusViolationConfirmed: the measured data crosses the classical
	// bound by at least the configured margin.
	StatusViolationConfirmed Status = "violation-confirmed"
	// StatusWeakSignal: the data leans past the bound but inside the
	// margin, the territory of hardware noise.
	StatusWeakSignal Status = "weak-signal"
	// StatusNotObserved: no effect, or no usable data.
	StatusNotObserved Status = "not-observed"
	// StatusReversalSuccessful / StatusReversalFailed: the reversal family
	// classifies against recovery of the initial state instead of a bound.
	StatusReversalSuccessful Status = "reversal-successful"
	StatusReversalFailed     Status = "reversal-failed"
)

// Verdict is the classifier's output. Deviation measures how far the data
// sits from the family's classical expectation; its exact meaning is
// documented per family on the classify functions.
type Verdict struct {
	Status    Status  `json:"status"`
	Deviation float64 `json:"deviation"`
	Reason    string  `json:"reason"`
}

const reasonNoData = "no data"

func notObserved(reason string) Verdict {
	return Verdict{Status: StatusNotObserved, Reason: reason}
}

// Classify derives the verdict for one run. Thresholds come from the config
// (zero-valued fields fall back to the family defaults); predictions supply
// the reference points deviations are measured against.
func Classify(cfg experiment.Config, measured []stats.Statistic, predicted []predict.Prediction) (Verdict, error) {
	th := experiment.EffectiveThresholds(cfg)
	switch cfg.Family {
	case experiment.FamilyCHSH:
		return classifyCHSH(th, measured), nil
	case experiment.FamilyGHZ:
		return classifyGHZ(th, measured, predicted), nil
	case experiment.FamilyHardy:
		return classifyHardy(th, measured), nil
	case experiment.FamilyZeno:
		return classifyZeno(cfg, th, measured), nil
	case experiment.FamilyPigeonhole:
		return classifyPigeonhole(th, measured), nil
	case experiment.FamilyBomb:
		return classifyBomb(th, measured), nil
	case experiment.FamilyEraser:
		return classifyEraser(th, measured), nil
	case experiment.FamilyCat:
		return classifyCat(th, measured), nil
	case experiment.FamilyReversal:
		return classifyReversal(measured, predicted), nil
	default:
		return Verdict{}, fmt.Errorf("no classifier for family %q", cfg.Family)
	}
}

// classifyCHSH: deviation = |S| − 2, the excess over the classical bound.
func classifyCHSH(th experiment.Thresholds, measured []stats.Statistic) Verdict {
	s, ok := stats.Lookup(measured, "S")
	if !ok {
		return notObserved(reasonNoData)
	}
	chsh, ok := s.(stats.CHSH)
	if !ok || !chsh.Defined {
		return notObserved(reasonNoData)
	}
	abs := math.Abs(chsh.S)
	dev := abs - 2
	switch {
	case abs > 2+th.Margin:
		return Verdict{
			Status:    StatusViolationConfirmed,
			Deviation: dev,
			Reason:    fmt.Sprintf("|S| = %.4f exceeds the classical bound 2 by %.4f", abs, dev),
		}
	case abs > 2:
		return Verdict{
			Status:    StatusWeakSignal,
			Deviation: dev,
			Reason:    fmt.Sprintf("|S| = %.4f is past the classical bound but inside the %.2f margin", abs, th.Margin),
		}
	default:
		return Verdict{
			Status:    StatusNotObserved,
			Deviation: dev,
			Reason:    fmt.Sprintf("|S| = %.4f stays within the classical bound", abs),
		}
	}
}

// classifyGHZ: deviation = predicted odd(XXX) − measured odd(XXX).
func classifyGHZ(th experiment.Thresholds, measured []stats.Statistic, predicted []predict.Prediction) Verdict {
	xxx, ok := parityStat(measured, "parity_XXX")
	if !ok {
		return notObserved(reasonNoData)
	}
	reference := 1.0
	if p, found := predict.Lookup(predicted, "parity_XXX_odd"); found {
		reference = p.Value
	}
	dev := reference - xxx.Odd

	evensHold := true
	for _, name := range []string{"parity_XYY", "parity_YXY", "parity_YYX"} {
		p, ok := parityStat(measured, name)
		if !ok {
			return notObserved(reasonNoData)
		}
		if p.Even < th.Cutoff+th.Margin {
			evensHold = false
		}
	}

	switch {
	case xxx.Odd >= th.Cutoff+th.Margin && evensHold:
		return Verdict{
			Status:    StatusViolationConfirmed,
			Deviation: dev,
			Reason:    fmt.Sprintf("odd parity under XXX at %.4f with all mixed bases even above %.2f", xxx.Odd, th.Cutoff+th.Margin),
		}
	case xxx.Odd > th.Cutoff:
		return Verdict{
			Status:    StatusWeakSignal,
			Deviation: dev,
			Reason:    fmt.Sprintf("odd parity under XXX at %.4f clears the cutoff but the margin or mixed bases do not hold", xxx.Odd),
		}
	default:
		return Verdict{
			Status:    StatusNotObserved,
			Deviation: dev,
			Reason:    fmt.Sprintf("odd parity under XXX at %.4f is consistent with the classical prediction", xxx.Odd),
		}
	}
}

func parityStat(measured []stats.Statistic, name string) (stats.Parity, bool) {
	s, ok := stats.Lookup(measured, name)
	if !ok {
		return stats.Parity{}, false
	}
	p, ok := s.(stats.Parity)
	if !ok || !p.Defined {
		return stats.Parity{}, false
	}
	return p, true
}

// classifyHardy: deviation = P(11|XX), the weight classical logic says must
// vanish.
func classifyHardy(th experiment.Thresholds, measured []stats.Statistic) Verdict {
	s, ok := stats.Lookup(measured, "p11_XX")
	if !ok {
		return notObserved(reasonNoData)
	}
	o, ok := s.(stats.Outcome)
	if !ok || !o.Defined {
		return notObserved(reasonNoData)
	}
	switch {
	case o.P > th.Margin:
		return Verdict{
			Status:    StatusViolationConfirmed,
			Deviation: o.P,
			Reason:    fmt.Sprintf("P(11|XX) = %.4f, an outcome classical logic forbids", o.P),
		}
	case o.P > th.Margin/2:
		return Verdict{
			Status:    StatusWeakSignal,
			Deviation: o.P,
			Reason:    fmt.Sprintf("P(11|XX) = %.4f is nonzero but inside the noise margin", o.P),
		}
	default:
		return Verdict{
			Status:    StatusNotObserved,
			Deviation: o.P,
			Reason:    fmt.Sprintf("P(11|XX) = %.4f is consistent with zero", o.P),
		}
	}
}

// classifyZeno: deviation = best staged survival − unobserved survival, the
// freezing gain.
func classifyZeno(cfg experiment.Config, th experiment.Thresholds, measured []stats.Statistic) Verdict {
	unobserved, ok := survivalValue(measured, experiment.LabelUnobserved)
	if !ok {
		return notObserved(reasonNoData)
	}

	best := math.Inf(-1)
	bestLabel := ""
	for _, n := range cfg.Checkpoints {
		label := experiment.ZenoLabel(cfg.Mode, n)
		p, ok := survivalValue(measured, label)
		if !ok {
			continue
		}
		if p > best {
			best = p
			bestLabel = label
		}
	}
	if bestLabel == "" {
		return notObserved(reasonNoData)
	}

	gain := best - unobserved
	switch {
	case gain > th.Margin:
		return Verdict{
			Status:    StatusViolationConfirmed,
			Deviation: gain,
			Reason:    fmt.Sprintf("%s survives at %.4f vs %.4f unobserved, a %.4f freezing gain", bestLabel, best, unobserved, gain),
		}
	case gain > 0:
		return Verdict{
			Status:    StatusWeakSignal,
			Deviation: gain,
			Reason:    fmt.Sprintf("%s survives at %.4f, only %.4f above the unobserved run", bestLabel, best, gain),
		}
	default:
		return Verdict{
			Status:    StatusNotObserved,
			Deviation: gain,
			Reason:    fmt.Sprintf("staged survival never beats the unobserved %.4f", unobserved),
		}
	}
}

// survivalValue reads a survival probability regardless of the statistic
// shape the mode produced: Survival.P in survival mode, FinalBit.P0 in reset
// mode (and for the unobserved control).
func survivalValue(measured []stats.Statistic, name string) (float64, bool) {
	s, ok := stats.Lookup(measured, name)
	if !ok || !s.IsDefined() {
		return 0, false
	}
	switch v := s.(type) {
	case stats.Survival:
		return v.P, true
	case stats.FinalBit:
		return v.P0, true
	default:
		return 0, false
	}
}

// classifyPigeonhole: deviation = 1 − quantum "any pair equal" fraction.
func classifyPigeonhole(th experiment.Thresholds, measured []stats.Statistic) Verdict {
	quantum, ok := pairShareStat(measured, "share_quantum")
	if !ok {
		return notObserved(reasonNoData)
	}
	classical, ok := pairShareStat(measured, "share_classical")
	if !ok {
		return notObserved(reasonNoData)
	}
	dev := 1 - quantum.Any
	switch {
	case quantum.Any <= 1-th.Margin:
		return Verdict{
			Status:    StatusViolationConfirmed,
			Deviation: dev,
			Reason:    fmt.Sprintf("quantum pair sharing at %.4f where the pigeonhole principle demands 1", quantum.Any),
		}
	case quantum.Any < classical.Any:
		return Verdict{
			Status:    StatusWeakSignal,
			Deviation: dev,
			Reason:    fmt.Sprintf("quantum pair sharing %.4f sits below the classical %.4f but inside the margin", quantum.Any, classical.Any),
		}
	default:
		return Verdict{
			Status:    StatusNotObserved,
			Deviation: dev,
			Reason:    "quantum pair sharing matches the classical run",
		}
	}
}

func pairShareStat(measured []stats.Statistic, name string) (stats.PairShare, bool) {
	s, ok := stats.Lookup(measured, name)
	if !ok {
		return stats.PairShare{}, false
	}
	p, ok := s.(stats.PairShare)
	if !ok || !p.Defined {
		return stats.PairShare{}, false
	}
	return p, true
}

// classifyBomb: deviation = interaction-free detection fraction.
func classifyBomb(th experiment.Thresholds, measured []stats.Statistic) Verdict {
	s, ok := stats.Lookup(measured, "detected")
	if !ok {
		return notObserved(reasonNoData)
	}
	o, ok := s.(stats.Outcome)
	if !ok || !o.Defined {
		return notObserved(reasonNoData)
	}
	switch {
	case o.P > th.Margin:
		return Verdict{
			Status:    StatusViolationConfirmed,
			Deviation: o.P,
			Reason:    fmt.Sprintf("%.4f of live bombs detected without interaction", o.P),
		}
	case o.P > th.Margin/2:
		return Verdict{
			Status:    StatusWeakSignal,
			Deviation: o.P,
			Reason:    fmt.Sprintf("interaction-free detection at %.4f is inside the noise margin", o.P),
		}
	default:
		return Verdict{
			Status:    StatusNotObserved,
			Deviation: o.P,
			Reason:    "no interaction-free detection above noise",
		}
	}
}

// classifyEraser: deviation = fringe contrast between the two idler subsets.
func classifyEraser(th experiment.Thresholds, measured []stats.Statistic) Verdict {
	s, ok := stats.Lookup(measured, "eraser")
	if !ok {
		return notObserved(reasonNoData)
	}
	c, ok := s.(stats.Conditional)
	if !ok || !c.Defined {
		return notObserved(reasonNoData)
	}
	contrast := math.Abs(c.Given0 - c.Given1)
	unbiased := math.Abs(c.Marginal-0.5) <= th.WeakWindow
	switch {
	case contrast > th.Margin && unbiased:
		return Verdict{
			Status:    StatusViolationConfirmed,
			Deviation: contrast,
			Reason:    fmt.Sprintf("idler sorting restores %.4f fringe contrast while the marginal stays at %.4f", contrast, c.Marginal),
		}
	case contrast > th.Margin:
		return Verdict{
			Status:    StatusWeakSignal,
			Deviation: contrast,
			Reason:    fmt.Sprintf("fringe contrast %.4f present but the marginal %.4f is biased", contrast, c.Marginal),
		}
	default:
		return Verdict{
			Status:    StatusNotObserved,
			Deviation: contrast,
			Reason:    fmt.Sprintf("no fringe contrast beyond %.2f", th.Margin),
		}
	}
}

// classifyCat: deviation = 1 − the smallest prep fidelity.
func classifyCat(th experiment.Thresholds, measured []stats.Statistic) Verdict {
	names := []string{"fidelity_entangled", "fidelity_ghz_3", "fidelity_ghz_5"}
	minFid := math.Inf(1)
	for _, name := range names {
		s, ok := stats.Lookup(measured, name)
		if !ok {
			return notObserved(reasonNoData)
		}
		f, ok := s.(stats.Fidelity)
		if !ok || !f.Defined {
			return notObserved(reasonNoData)
		}
		if f.P < minFid {
			minFid = f.P
		}
	}
	bell := mustFidelity(measured, "fidelity_entangled")
	dev := 1 - minFid
	switch {
	case minFid >= th.Cutoff:
		return Verdict{
			Status:    StatusViolationConfirmed,
			Deviation: dev,
			Reason:    fmt.Sprintf("every cat prep holds fidelity ≥ %.2f (worst %.4f)", th.Cutoff, minFid),
		}
	case bell >= th.Cutoff:
		return Verdict{
			Status:    StatusWeakSignal,
			Deviation: dev,
			Reason:    fmt.Sprintf("the two-qubit cat holds %.4f but larger preps decohere (worst %.4f)", bell, minFid),
		}
	default:
		return Verdict{
			Status:    StatusNotObserved,
			Deviation: dev,
			Reason:    fmt.Sprintf("cat fidelity %.4f below the %.2f cutoff", minFid, th.Cutoff),
		}
	}
}

// mustFidelity assumes the caller already verified presence and definedness.
func mustFidelity(measured []stats.Statistic, name string) float64 {
	s, _ := stats.Lookup(measured, name)
	f, _ := s.(stats.Fidelity)
	return f.P
}

// classifyReversal: deviation = |P(initial state) − prediction|.
func classifyReversal(measured []stats.Statistic, predicted []predict.Prediction) Verdict {
	s, ok := stats.Lookup(measured, "p_reversed")
	if !ok {
		return notObserved(reasonNoData)
	}
	o, ok := s.(stats.Outcome)
	if !ok || !o.Defined {
		return notObserved(reasonNoData)
	}
	reference := 1.0
	if p, found := predict.Lookup(predicted, "p_reversed"); found {
		reference = p.Value
	}
	dev := math.Abs(o.P - reference)
	if o.P > 0.5 {
		return Verdict{
			Status:    StatusReversalSuccessful,
			Deviation: dev,
			Reason:    fmt.Sprintf("initial state recovered with probability %.4f", o.P),
		}
	}
	return Verdict{
		Status:    StatusReversalFailed,
		Deviation: dev,
		Reason:    fmt.Sprintf("initial state recovered with probability %.4f, at or below chance", o.P),
	}
}
