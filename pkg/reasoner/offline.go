package reasoner

import (
	"github.com/charlenopires/codegraph/pkg/statement"
	"github.com/charlenopires/codegraph/pkg/truth"
)

// offlineReasoner is the internal rule-based substitute used whenever the
// external reasoner is disabled, circuit-broken, or silent. Per spec.md
// §4.3 it only forward-chains on inheritance and similarity statements;
// it never performs implication introduction.
type offlineReasoner struct{}

func newOfflineReasoner() *offlineReasoner {
	return &offlineReasoner{}
}

// query derives new inheritance judgements by chaining two inheritance
// statements that share a middle term (A-->B, B-->C implies A-->C via
// deduction) and by mirroring similarity statements (A<->B implies
// B<->A with the same truth, since similarity is symmetric).
func (o *offlineReasoner) query(statements []*statement.Statement, focal *statement.Statement) QueryResult {
	result := QueryResult{Degraded: true, DerivedTruths: make(map[string]derivedTruth)}

	var inheritance []*statement.Statement
	for _, s := range statements {
		switch s.Shape {
		case statement.ShapeInheritance:
			inheritance = append(inheritance, s)
		case statement.ShapeSimilarity:
			if s.Truth != nil {
				mirror := &statement.Statement{
					Shape:     statement.ShapeSimilarity,
					Subject:   s.Predicate,
					Predicate: s.Subject,
					Truth:     s.Truth,
				}
				result.DerivedStatements = append(result.DerivedStatements, mirror)
				recordTruth(result.DerivedTruths, mirror.Predicate.Atom, *s.Truth)
			}
		}
	}

	for i, a := range inheritance {
		if a.Truth == nil {
			continue
		}
		for j, b := range inheritance {
			if i == j || b.Truth == nil {
				continue
			}
			if a.Predicate.Atom == "" || a.Predicate.Atom != b.Subject.Atom {
				continue
			}
			derived := truth.Deduction(*a.Truth, *b.Truth)
			chained := &statement.Statement{
				Shape:     statement.ShapeInheritance,
				Subject:   a.Subject,
				Predicate: b.Predicate,
				Truth:     &derived,
			}
			result.DerivedStatements = append(result.DerivedStatements, chained)
			recordTruth(result.DerivedTruths, b.Predicate.Atom, derived)
		}
	}

	if focal != nil && focal.Punctuation == statement.PunctQuestion {
		for _, d := range result.DerivedStatements {
			if d.Shape == focal.Shape && d.Subject.Atom == focal.Subject.Atom {
				result.BestAnswer = d
				break
			}
		}
	}
	return result
}

func recordTruth(m map[string]derivedTruth, term string, v truth.Value) {
	if term == "" {
		return
	}
	m[term] = derivedTruth{F: v.F, C: v.C}
}
