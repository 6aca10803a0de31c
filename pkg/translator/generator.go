package translator

import (
	"context"
	"strings"

	"github.com/charlenopires/codegraph/pkg/statement"
)

// StatementGenerator invokes an external generative model with a fixed
// prompt schema and returns its raw structured reply, one statement per
// line, for the translator to parse through the SymbolicStatementCodec.
// CodeGraph's core depends only on this narrow interface; the concrete
// model integration is out of scope (spec.md §1 excludes the LLM
// code-generation stage — this is query translation, not generation).
type StatementGenerator interface {
	Generate(ctx context.Context, nlText string) (string, error)
}

// parseGeneratedStatements parses a generator's newline-separated reply,
// skipping lines that fail to parse rather than failing the whole call —
// a partial statement set is still useful to the retriever.
func parseGeneratedStatements(reply string) []*statement.Statement {
	var out []*statement.Statement
	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if s, err := statement.Parse(trimmed); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// offlineTranslate implements the rule-based offline strategy: one
// inheritance statement per recognised noun, one property statement per
// recognised adjective.
func offlineTranslate(tokens []string) []*statement.Statement {
	var out []*statement.Statement
	for _, tok := range tokens {
		if cat, ok := nounCategories[tok]; ok {
			src := "<" + tok + " --> " + string(cat) + ">"
			if s, err := statement.Parse(src); err == nil {
				out = append(out, s)
			}
		}
		if recognisedAdjectives[tok] {
			src := tok + " --> [" + tok + "]"
			if s, err := statement.Parse(src); err == nil {
				out = append(out, s)
			}
		}
	}
	return out
}
