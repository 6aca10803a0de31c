package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlenopires/codegraph/pkg/graph"
	"github.com/charlenopires/codegraph/pkg/reasoner"
	"github.com/charlenopires/codegraph/pkg/statement"
	"github.com/charlenopires/codegraph/pkg/translator"
)

func mustParseStatement(t *testing.T, src string) *statement.Statement {
	t.Helper()
	s, err := statement.Parse(src)
	require.NoError(t, err)
	return s
}

// TestSymbolicChannelResolvesDerivedTermsToEntities covers spec.md §4.5's
// "each term that maps to an entity contributes expectation(...)": the
// offline reasoner chains two inheritance statements into a derived
// judgement about "Interactive", and the channel must resolve that term to
// the entity carrying it as a HAS_CATEGORY edge rather than treating the
// term itself as a graph.EntityID.
func TestSymbolicChannelResolvesDerivedTermsToEntities(t *testing.T) {
	ctx := context.Background()
	repo := graph.NewMemoryRepository()
	require.NoError(t, repo.Upsert(ctx, &graph.Entity{ID: "btn-1"}))
	require.NoError(t, repo.UpsertRelation(ctx, graph.Relation{From: "btn-1", To: "Interactive", Type: graph.RelHasCategory}))

	client := reasoner.New(reasoner.Config{Enabled: false}, nil)
	ch := NewSymbolicChannel(client, repo)

	plan := &translator.QueryPlan{
		Statements: []*statement.Statement{
			mustParseStatement(t, "<button --> widget> {0.9 0.8}"),
			mustParseStatement(t, "<widget --> Interactive> {0.9 0.8}"),
		},
	}

	scores, err := ch.Score(ctx, plan, 10)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, graph.EntityID("btn-1"), scores[0].id)
	assert.Greater(t, scores[0].score, 0.5)
}

// TestSymbolicChannelIgnoresTermsWithNoMatchingEntity covers the case
// where a derived term maps to nothing in the graph: it must not be
// miscast into a fabricated candidate id.
func TestSymbolicChannelIgnoresTermsWithNoMatchingEntity(t *testing.T) {
	ctx := context.Background()
	repo := graph.NewMemoryRepository()

	client := reasoner.New(reasoner.Config{Enabled: false}, nil)
	ch := NewSymbolicChannel(client, repo)

	plan := &translator.QueryPlan{
		Statements: []*statement.Statement{
			mustParseStatement(t, "<button --> widget> {0.9 0.8}"),
			mustParseStatement(t, "<widget --> Interactive> {0.9 0.8}"),
		},
	}

	scores, err := ch.Score(ctx, plan, 10)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

// TestSymbolicChannelHealthRequiresRepoAndClient covers the constructor's
// expanded health contract now that the channel depends on a repository.
func TestSymbolicChannelHealthRequiresRepoAndClient(t *testing.T) {
	ch := NewSymbolicChannel(nil, graph.NewMemoryRepository())
	assert.False(t, ch.Health(context.Background()))

	ch = NewSymbolicChannel(reasoner.New(reasoner.Config{Enabled: false}, nil), nil)
	assert.False(t, ch.Health(context.Background()))
}
