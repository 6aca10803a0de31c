package translator

import (
	"context"

	"github.com/charlenopires/codegraph/pkg/statement"
)

// Mode selects the translation strategy.
type Mode string

const (
	ModeLLM     Mode = "llm"
	ModeOffline Mode = "offline"
)

// Config configures a Translator.
type Config struct {
	Mode Mode
}

// Translator implements QueryTranslator (spec.md §4.4). It never fails a
// request: any sub-failure is recorded as a DegradationFlag on the
// returned QueryPlan instead of propagated as an error.
type Translator struct {
	cfg       Config
	embedder  Embedder
	generator StatementGenerator // nil when cfg.Mode is ModeOffline
}

// New creates a Translator. generator may be nil; it is only consulted
// when cfg.Mode is ModeLLM, and any failure (including a nil generator)
// falls back to the offline strategy with FlagGenerationFailed recorded.
func New(cfg Config, embedder Embedder, generator StatementGenerator) *Translator {
	return &Translator{cfg: cfg, embedder: embedder, generator: generator}
}

// Translate converts nlText into a QueryPlan.
func (t *Translator) Translate(ctx context.Context, nlText string, opts Options) *QueryPlan {
	plan := &QueryPlan{
		NLText:           nlText,
		IncludeReasoning: opts.IncludeReasoning,
	}

	tokens := tokenise(nlText)

	embedding, err := t.embedder.Embed(ctx, nlText)
	if err != nil {
		plan.degrade(FlagEmbeddingFailed)
	} else {
		plan.Embedding = embedding
	}

	plan.Statements = t.translateStatements(ctx, nlText, tokens, plan)
	plan.Constraints = extractConstraints(tokens)

	return plan
}

// translateStatements prefers the LLM generator when configured. Falling
// back to the offline lexicon is only a degradation when it happens
// because ModeLLM was configured and the generator failed; when
// ModeOffline is the configured mode, using the offline lexicon is
// expected behaviour, not a sub-failure, so no flag is recorded.
func (t *Translator) translateStatements(ctx context.Context, nlText string, tokens []string, plan *QueryPlan) []*statement.Statement {
	if t.cfg.Mode != ModeLLM {
		return offlineTranslate(tokens)
	}

	if t.generator != nil {
		reply, err := t.generator.Generate(ctx, nlText)
		if err == nil {
			if parsed := parseGeneratedStatements(reply); len(parsed) > 0 {
				return parsed
			}
		}
	}

	plan.degrade(FlagGenerationFailed)
	plan.degrade(FlagOfflineFallback)
	return offlineTranslate(tokens)
}

// extractConstraints implements extract_constraints: dictionary lookup
// over the closed ontology vocabulary for category, design system, and
// free-form tags (any recognised adjective not already folded into
// category/design-system becomes a tag).
func extractConstraints(tokens []string) Constraints {
	var c Constraints
	seenTags := make(map[string]bool)

	for _, tok := range tokens {
		if c.Category == nil {
			if cat, ok := nounCategories[tok]; ok {
				cp := cat
				c.Category = &cp
			}
		}
		if c.DesignSystem == nil {
			if ds, ok := designSystemVocabulary[tok]; ok {
				cp := ds
				c.DesignSystem = &cp
			}
		}
		if recognisedAdjectives[tok] && !seenTags[tok] {
			seenTags[tok] = true
			c.Tags = append(c.Tags, tok)
		}
	}
	return c
}
