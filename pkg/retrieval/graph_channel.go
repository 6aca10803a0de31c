package retrieval

import (
	"context"
	"fmt"

	cgraph "github.com/charlenopires/codegraph/pkg/graph"
	"github.com/charlenopires/codegraph/pkg/statement"
	"github.com/charlenopires/codegraph/pkg/translator"
)

const graphTraversalDepth = 2

// GraphChannel scores entities by a bounded graph traversal from seed
// terms taken from the query's statements, per spec.md §4.5.
type GraphChannel struct {
	repo cgraph.Repository
}

// NewGraphChannel creates a GraphChannel over repo.
func NewGraphChannel(repo cgraph.Repository) *GraphChannel {
	return &GraphChannel{repo: repo}
}

func (g *GraphChannel) Name() Reason { return ReasonGraph }

func (g *GraphChannel) Health(ctx context.Context) bool {
	return g.repo != nil
}

// Score finds entities on HAS_CATEGORY/USES_DESIGN_SYSTEM for each seed
// term, then expands to SIMILAR_TO/CAN_REPLACE neighbours up to depth 2.
// Each entity's raw score is the sum of edge weights divided by path
// length along the path it was reached by; the batch is then normalised
// to [0,1] by the largest observed raw score.
func (g *GraphChannel) Score(ctx context.Context, plan *translator.QueryPlan, limit int) ([]channelScore, error) {
	seeds := seedTerms(plan.Statements)
	if len(seeds) == 0 {
		return nil, nil
	}

	raw := make(map[cgraph.EntityID]float64)
	reasons := make(map[cgraph.EntityID]string)

	seedEntities, err := g.repo.QueryByTerms(ctx, seeds, []cgraph.RelationType{cgraph.RelHasCategory, cgraph.RelUsesDesignSystem})
	if err != nil {
		return nil, err
	}

	for _, e := range seedEntities {
		if raw[e.ID] < 1.0 {
			raw[e.ID] = 1.0
			reasons[e.ID] = fmt.Sprintf("matched seed category/design-system for %s", e.ID)
		}

		neighbours, err := g.repo.Neighbours(ctx, e.ID, []cgraph.RelationType{cgraph.RelSimilarTo, cgraph.RelCanReplace}, graphTraversalDepth)
		if err != nil {
			continue
		}
		for _, n := range neighbours {
			score := n.PathWeight / float64(n.Depth)
			if score > raw[n.Entity.ID] {
				raw[n.Entity.ID] = score
				reasons[n.Entity.ID] = fmt.Sprintf("reached via %s from %s at depth %d", n.Relation.Type, e.ID, n.Depth)
			}
		}
	}

	var maxScore float64
	for _, s := range raw {
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore == 0 {
		return nil, nil
	}

	out := make([]channelScore, 0, len(raw))
	for id, s := range raw {
		out = append(out, channelScore{id: id, score: s / maxScore, reason: reasons[id]})
	}
	return out, nil
}

// seedTerms pulls subject/predicate atoms off inheritance statements,
// which spec.md §4.4 uses to carry category/property assertions.
func seedTerms(statements []*statement.Statement) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range statements {
		if s.Shape != statement.ShapeInheritance {
			continue
		}
		for _, term := range []string{s.Subject.Atom, s.Predicate.Atom} {
			if term != "" && !seen[term] {
				seen[term] = true
				out = append(out, term)
			}
		}
	}
	return out
}
