// Package feedback implements FeedbackPropagator: it converts user
// thumbs-up/down signals into signed confidence updates, applies them to
// the target entity, propagates attenuated updates along typed relations
// up to a bounded depth, and records revision traces.
package feedback

import (
	"time"

	"github.com/charlenopires/codegraph/pkg/graph"
	"github.com/charlenopires/codegraph/pkg/truth"
)

// Kind is the direction of a feedback signal.
type Kind string

const (
	KindPositive Kind = "positive"
	KindNegative Kind = "negative"
)

// Event is a persisted FeedbackEvent (spec.md §3).
type Event struct {
	ID           string
	ElementID    graph.EntityID
	Kind         Kind
	QueryContext *string
	Comment      *string
	CreatedAt    time.Time
	AppliedDelta float64
	PostTruth    truth.Value
}

// Update is a single confidence mutation result, supplementing spec.md
// with the Rust reference's ConfidenceUpdate value: it carries enough to
// answer "what changed" without recomputing it from before/after state.
type Update struct {
	ElementID     graph.EntityID
	OldConfidence float64
	NewConfidence float64
	Delta         float64
}

// ActualDelta is the signed confidence change (NewConfidence - OldConfidence).
func (u Update) ActualDelta() float64 { return u.Delta }

// IsIncrease reports whether the update raised the entity's confidence.
func (u Update) IsIncrease() bool { return u.Delta > 0 }

// AuditRecord is one append-only revision trace entry (spec.md §4.6).
type AuditRecord struct {
	EntityID  graph.EntityID
	PreTruth  truth.Value
	PostTruth truth.Value
	EventID   string
	Depth     int
	At        time.Time
}

// Config holds the propagator's tunables, named directly after spec.md
// §6's configuration surface (`feedback.*` keys).
type Config struct {
	PositiveConfidence float64
	NegativeConfidence float64
	SimilarAttenuation float64
	ReplaceAttenuation float64
	MaxDepth           int
	MaxRetries         int
}

// DefaultConfig returns the literal constants spec.md §4.6 specifies.
func DefaultConfig() Config {
	return Config{
		PositiveConfidence: 0.9,
		NegativeConfidence: 0.9,
		SimilarAttenuation: 0.5,
		ReplaceAttenuation: 0.3,
		MaxDepth:           2,
		MaxRetries:         3,
	}
}

func (c Config) evidenceFor(kind Kind) truth.Value {
	switch kind {
	case KindPositive:
		return truth.Value{F: 1.0, C: c.PositiveConfidence}
	default:
		return truth.Value{F: 0.0, C: c.NegativeConfidence}
	}
}

func (c Config) attenuationFor(rt graph.RelationType) float64 {
	switch rt {
	case graph.RelSimilarTo:
		return c.SimilarAttenuation
	case graph.RelCanReplace:
		return c.ReplaceAttenuation
	default:
		return 0
	}
}
