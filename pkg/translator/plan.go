// Package translator implements QueryTranslator: it turns a natural
// language request into a QueryPlan carrying an embedding vector, a set
// of symbolic statements, and lexical/structural constraints, never
// failing the request outright — sub-failures degrade the plan instead.
package translator

import (
	"github.com/charlenopires/codegraph/pkg/graph"
	"github.com/charlenopires/codegraph/pkg/statement"
)

// DegradationFlag names a sub-failure the translator recovered from by
// returning a partially populated QueryPlan.
type DegradationFlag string

const (
	FlagEmbeddingFailed  DegradationFlag = "embedding_failed"
	FlagGenerationFailed DegradationFlag = "generation_failed"
	// FlagOfflineFallback is recorded only when ModeLLM was configured
	// and the generator failed, forcing a fall back to the offline
	// lexicon. It is never recorded when ModeOffline is itself the
	// configured mode, since using the offline lexicon there is expected
	// behaviour, not a sub-failure.
	FlagOfflineFallback DegradationFlag = "offline_fallback"
)

// Constraints are the lexical/structural filters extracted from the
// request text.
type Constraints struct {
	Category     *graph.Category
	DesignSystem *graph.DesignSystem
	Tags         []string
}

// Options configures a single translation call.
type Options struct {
	IncludeReasoning bool
	InferenceCycles  int
}

// QueryPlan is the transient per-request output of the translator.
type QueryPlan struct {
	NLText           string
	Embedding        []float32
	Statements       []*statement.Statement
	Constraints      Constraints
	Limit            int
	IncludeReasoning bool
	DegradationFlags []DegradationFlag
}

func (p *QueryPlan) degrade(flag DegradationFlag) {
	p.DegradationFlags = append(p.DegradationFlags, flag)
}
