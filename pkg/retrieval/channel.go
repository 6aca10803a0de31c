package retrieval

import (
	"context"

	"github.com/charlenopires/codegraph/pkg/translator"
)

// Channel is the capability set spec.md §9 names for a retrieval source:
// score a QueryPlan into per-entity contributions, and report health.
// HybridRetriever depends only on this interface; VectorChannel,
// GraphChannel, and SymbolicChannel are its variants.
type Channel interface {
	Name() Reason
	Score(ctx context.Context, plan *translator.QueryPlan, limit int) ([]channelScore, error)
	Health(ctx context.Context) bool
}
