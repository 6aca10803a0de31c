package retrieval

import (
	"context"
	"fmt"

	"github.com/charlenopires/codegraph/pkg/graph"
	"github.com/charlenopires/codegraph/pkg/reasoner"
	"github.com/charlenopires/codegraph/pkg/statement"
	"github.com/charlenopires/codegraph/pkg/translator"
	"github.com/charlenopires/codegraph/pkg/truth"
)

// SymbolicChannel scores entities by the reasoner's derived judgements
// about the entity's terms, per spec.md §4.5. The reasoner derives truths
// about ontology/lexical terms ("button", "Interactive"), not the opaque
// graph.EntityIDs the vector and graph channels score against, so each
// derived term is resolved to the entities that carry it as a category or
// design-system tag via repo.QueryByTerms, the same lookup GraphChannel
// uses for its own seed terms. A term with no matching entity contributes
// nothing; a term matching several entities contributes its score to all
// of them.
type SymbolicChannel struct {
	client *reasoner.Client
	repo   graph.Repository
}

// NewSymbolicChannel creates a SymbolicChannel over client, resolving
// derived terms to entities through repo.
func NewSymbolicChannel(client *reasoner.Client, repo graph.Repository) *SymbolicChannel {
	return &SymbolicChannel{client: client, repo: repo}
}

func (s *SymbolicChannel) Name() Reason { return ReasonSymbolic }

func (s *SymbolicChannel) Health(ctx context.Context) bool {
	return s.client != nil && s.repo != nil
}

func (s *SymbolicChannel) Score(ctx context.Context, plan *translator.QueryPlan, limit int) ([]channelScore, error) {
	if len(plan.Statements) == 0 {
		return nil, nil
	}

	var focal *statement.Statement
	for _, stmt := range plan.Statements {
		if stmt.Punctuation == statement.PunctQuestion {
			focal = stmt
			break
		}
	}

	result, err := s.client.Query(ctx, plan.Statements, focal)
	if err != nil {
		return nil, err
	}

	relTypes := []graph.RelationType{graph.RelHasCategory, graph.RelUsesDesignSystem}
	best := make(map[graph.EntityID]channelScore)
	for term, dt := range result.DerivedTruths {
		entities, err := s.repo.QueryByTerms(ctx, []string{term}, relTypes)
		if err != nil {
			return nil, err
		}
		if len(entities) == 0 {
			continue
		}

		score := truth.Expectation(truth.Value{F: dt.F, C: dt.C})
		for _, e := range entities {
			if cur, ok := best[e.ID]; !ok || score > cur.score {
				best[e.ID] = channelScore{
					id:     e.ID,
					score:  score,
					reason: fmt.Sprintf("reasoner derived %s with confidence %.2f", term, dt.C),
				}
			}
		}
	}

	out := make([]channelScore, 0, len(best))
	for _, cs := range best {
		out = append(out, cs)
	}
	return out, nil
}
