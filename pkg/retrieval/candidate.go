// Package retrieval implements HybridRetriever: three concurrent scoring
// channels (vector, graph, symbolic) fused under a fixed weighted sum,
// with silent degradation when a channel is unhealthy or slow.
package retrieval

import (
	"github.com/charlenopires/codegraph/pkg/graph"
	"github.com/charlenopires/codegraph/pkg/truth"
)

// Reason names which channel contributed a non-zero score, for
// CandidateScore.MatchReasons.
type Reason string

const (
	ReasonVector   Reason = "vector"
	ReasonGraph    Reason = "graph"
	ReasonSymbolic Reason = "nars"
)

// CandidateScore is the transient per-request per-entity scoring record
// returned to the caller (spec.md §3).
type CandidateScore struct {
	EntityID     graph.EntityID
	VectorScore  float64
	GraphScore   float64
	NarsScore    float64
	FusedScore   float64
	MatchReasons []string
	Truth        truth.Value
}

// Result is HybridRetriever's output for one query.
type Result struct {
	Elements             []CandidateScore
	ReasoningExplanation string // populated only when requested
	Degraded             bool   // true if any channel was unhealthy or timed out
	NarseseQueries       []string
}

// channelScore is one channel's opinion about one entity, before fusion.
type channelScore struct {
	id     graph.EntityID
	score  float64 // already normalised to [0,1]
	reason string  // human-readable one-line justification
}
