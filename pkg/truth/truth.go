// Package truth implements the evidential truth-value algebra: pure,
// side-effect-free operations on frequency/confidence pairs following the
// non-axiomatic calculus (NAL). New, Validate, Revision and Decay reject
// ill-formed inputs with cgerr.ErrInvalidTruthValue; the other functions
// do not validate their inputs.
//
// Example:
//
//	v, _ := truth.New(0.8, 0.6)
//	e := truth.Expectation(v) // 0.68
package truth

import (
	"fmt"

	"github.com/charlenopires/codegraph/pkg/cgerr"
)

// Value is an evidential truth-value ⟨f, c⟩: frequency is the proportion of
// positive evidence, confidence measures evidence mass. AIKR requires
// c < 1 strictly — a system never reaches total certainty.
type Value struct {
	F float64
	C float64
}

// New validates and constructs a Value. f must satisfy 0<=f<=1, c must
// satisfy 0<=c<1.
func New(f, c float64) (Value, error) {
	v := Value{F: f, C: c}
	if err := v.Validate(); err != nil {
		return Value{}, err
	}
	return v, nil
}

// Validate checks the invariant 0<=f<=1, 0<=c<1.
func (v Value) Validate() error {
	if v.F < 0 || v.F > 1 {
		return cgerr.Wrap(cgerr.ErrInvalidTruthValue, "frequency %v out of [0,1]", v.F)
	}
	if v.C < 0 || v.C >= 1 {
		return cgerr.Wrap(cgerr.ErrInvalidTruthValue, "confidence %v out of [0,1)", v.C)
	}
	return nil
}

func (v Value) String() string {
	return fmt.Sprintf("⟨%.4f, %.4f⟩", v.F, v.C)
}

// Expectation summarises a truth-value as a single ranking scalar:
// c·(f−0.5)+0.5. Used by ReasonerClient-derived scores and by the symbolic
// retrieval channel.
//
// Example:
//
//	truth.Expectation(truth.Value{F: 0.9, C: 0.8}) // 0.82
func Expectation(v Value) float64 {
	return v.C*(v.F-0.5) + 0.5
}

// Revision combines two independent pieces of evidence about the same
// statement into one. Used for direct feedback updates and for accumulating
// derived judgements from the reasoner.
//
// Example:
//
//	a, _ := truth.New(0.5, 0.5)
//	b, _ := truth.New(1.0, 0.9)
//	r, _ := truth.Revision(a, b) // ⟨0.95, 0.909...⟩
func Revision(a, b Value) (Value, error) {
	if err := a.Validate(); err != nil {
		return Value{}, err
	}
	if err := b.Validate(); err != nil {
		return Value{}, err
	}

	w1 := a.C / (1 - a.C)
	w2 := b.C / (1 - b.C)
	w := w1 + w2

	if w == 0 {
		return Value{F: 0.5, C: 0}, nil
	}

	f := (w1*a.F + w2*b.F) / w
	c := w / (w + 1)

	return Value{F: clamp01(f), C: c}, nil
}

// Decay lowers confidence by factor λ∈(0,1] while preserving frequency.
// decay(t, 1.0) == t; for λ<1 confidence strictly decreases when c>0. Used
// by FeedbackPropagator when attenuating evidence along graph edges.
//
// Example:
//
//	v, _ := truth.New(0.8, 0.9)
//	d, _ := truth.Decay(v, 0.5) // ⟨0.8, 0.45⟩
func Decay(v Value, lambda float64) (Value, error) {
	if err := v.Validate(); err != nil {
		return Value{}, err
	}
	if lambda <= 0 || lambda > 1 {
		return Value{}, cgerr.Wrap(cgerr.ErrInvalidTruthValue, "decay factor %v out of (0,1]", lambda)
	}
	return Value{F: v.F, C: v.C * lambda}, nil
}

// Deduction implements the NAL deduction rule over two premises sharing a
// middle term: strong syllogistic inference, f and c both shrink as
// products of the two premises' evidence. Required for the offline
// reasoner substitute's forward-chaining on inheritance statements.
//
// Example:
//
//	p1, _ := truth.New(0.9, 0.9) // <bird --> animal>
//	p2, _ := truth.New(0.8, 0.9) // <animal --> has-wings>
//	d := truth.Deduction(p1, p2) // <bird --> has-wings>
func Deduction(p1, p2 Value) Value {
	f := p1.F * p2.F
	c := p1.C * p2.C * f
	return Value{F: clamp01(f), C: clampC(c)}
}

// Abduction implements the NAL abduction rule: infers a shared-predicate
// relation from two statements sharing a subject, weighted by the second
// premise's own evidence mass.
func Abduction(p1, p2 Value) Value {
	f := p2.F
	c := p1.F * p1.C * p2.C / (p1.F*p1.C*p2.C + 1)
	return Value{F: clamp01(f), C: clampC(c)}
}

// Induction implements the NAL induction rule: the mirror of Abduction,
// inferring a shared-subject relation from two statements sharing a
// predicate.
func Induction(p1, p2 Value) Value {
	f := p1.F
	c := p2.F * p2.C * p1.C / (p2.F*p2.C*p1.C + 1)
	return Value{F: clamp01(f), C: clampC(c)}
}

// Intersection combines two statements about the same subject into a
// conjunctive term, used when the reasoner substitute merges independent
// property statements about one entity.
func Intersection(p1, p2 Value) Value {
	f := p1.F * p2.F
	c := p1.C * p2.C
	return Value{F: clamp01(f), C: clampC(c)}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// clampC keeps confidence strictly below 1, honouring AIKR even when a
// product of near-1 confidences would otherwise round up to it.
func clampC(x float64) float64 {
	const epsMax = 0.999999
	if x < 0 {
		return 0
	}
	if x >= 1 {
		return epsMax
	}
	return x
}
