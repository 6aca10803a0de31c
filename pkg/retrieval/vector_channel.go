package retrieval

import (
	"context"
	"fmt"

	"github.com/charlenopires/codegraph/pkg/graph"
	"github.com/charlenopires/codegraph/pkg/translator"
	"github.com/charlenopires/codegraph/pkg/vectorstore"
)

// VectorChannel scores entities by cosine similarity to the query
// embedding, per spec.md §4.5.
type VectorChannel struct {
	repo     vectorstore.Repository
	overscan int
}

// NewVectorChannel creates a VectorChannel. overscan defaults to 4 when
// non-positive, matching spec.md's default.
func NewVectorChannel(repo vectorstore.Repository, overscan int) *VectorChannel {
	if overscan <= 0 {
		overscan = 4
	}
	return &VectorChannel{repo: repo, overscan: overscan}
}

func (v *VectorChannel) Name() Reason { return ReasonVector }

func (v *VectorChannel) Health(ctx context.Context) bool {
	return v.repo != nil
}

func (v *VectorChannel) Score(ctx context.Context, plan *translator.QueryPlan, limit int) ([]channelScore, error) {
	if len(plan.Embedding) == 0 {
		return nil, nil
	}

	filter := vectorstore.Filter{}
	if plan.Constraints.Category != nil {
		filter.Category = string(*plan.Constraints.Category)
	}
	if plan.Constraints.DesignSystem != nil {
		filter.DesignSystem = string(*plan.Constraints.DesignSystem)
	}

	k := limit * v.overscan
	matches, err := v.repo.Knn(ctx, plan.Embedding, k, filter)
	if err != nil {
		return nil, err
	}

	out := make([]channelScore, 0, len(matches))
	for _, m := range matches {
		out = append(out, channelScore{
			id:     graph.EntityID(m.ID),
			score:  vectorstore.NormaliseSimilarity(m.Similarity),
			reason: fmt.Sprintf("vector similarity %.2f", m.Similarity),
		})
	}
	return out, nil
}
