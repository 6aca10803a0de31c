package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlenopires/codegraph/pkg/graph"
	"github.com/charlenopires/codegraph/pkg/translator"
)

func TestCachingRetrieverServesRepeatedQueryFromCache(t *testing.T) {
	vc := vecChan(channelScore{id: "a", score: 0.9})
	inner := New(DefaultConfig(), graph.NewMemoryRepository(), vc, graphChan(), narsChan())

	cr, err := NewCaching(inner, 16)
	require.NoError(t, err)

	plan := &translator.QueryPlan{NLText: "a button"}

	first, err := cr.Retrieve(context.Background(), plan, 10, false)
	require.NoError(t, err)
	require.Len(t, first.Elements, 1)

	// Mutate the underlying channel's script; a cache hit must not observe
	// this change.
	vc.scores = []channelScore{{id: "b", score: 0.9}}

	second, err := cr.Retrieve(context.Background(), plan, 10, false)
	require.NoError(t, err)
	require.Len(t, second.Elements, 1)
	assert.Equal(t, graph.EntityID("a"), second.Elements[0].EntityID)
}

func TestCachingRetrieverBypassesCacheForReasoningRequests(t *testing.T) {
	vc := vecChan(channelScore{id: "a", score: 0.9})
	inner := New(DefaultConfig(), graph.NewMemoryRepository(), vc, graphChan(), narsChan())

	cr, err := NewCaching(inner, 16)
	require.NoError(t, err)

	plan := &translator.QueryPlan{NLText: "a button"}

	result, err := cr.Retrieve(context.Background(), plan, 10, true)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ReasoningExplanation)

	vc.scores = []channelScore{{id: "b", score: 0.9}}

	second, err := cr.Retrieve(context.Background(), plan, 10, false)
	require.NoError(t, err)
	require.Len(t, second.Elements, 1)
	assert.Equal(t, graph.EntityID("b"), second.Elements[0].EntityID)
}

func TestCachingRetrieverZeroSizeDisablesCache(t *testing.T) {
	vc := vecChan(channelScore{id: "a", score: 0.9})
	inner := New(DefaultConfig(), graph.NewMemoryRepository(), vc, graphChan(), narsChan())

	cr, err := NewCaching(inner, 0)
	require.NoError(t, err)
	assert.Nil(t, cr.cache)

	plan := &translator.QueryPlan{NLText: "a button"}
	_, err = cr.Retrieve(context.Background(), plan, 10, false)
	require.NoError(t, err)
}

func TestCacheKeyDistinguishesConstraints(t *testing.T) {
	p1 := &translator.QueryPlan{NLText: "a button"}
	p2 := &translator.QueryPlan{NLText: "a button"}
	ds := graph.DesignSystem("material")
	p2.Constraints.DesignSystem = &ds

	assert.NotEqual(t, cacheKey(p1, 10), cacheKey(p2, 10))
}
