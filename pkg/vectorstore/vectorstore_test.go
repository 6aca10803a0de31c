package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlenopires/codegraph/pkg/cgerr"
)

func TestNewStoreRejectsNonPositiveDimension(t *testing.T) {
	_, err := NewStore(0)
	assert.ErrorIs(t, err, cgerr.ErrConfigInvalid)
}

func TestUpsertRejectsDimensionMismatch(t *testing.T) {
	s, err := NewStore(3)
	require.NoError(t, err)

	err = s.Upsert(context.Background(), "a", []float32{1, 2}, Payload{})
	assert.ErrorIs(t, err, cgerr.ErrEmbeddingDimensionMismatch)
}

func TestKnnRanksBySimilarityDescending(t *testing.T) {
	s, err := NewStore(3)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "identical", []float32{1, 0, 0}, Payload{}))
	require.NoError(t, s.Upsert(ctx, "orthogonal", []float32{0, 1, 0}, Payload{}))
	require.NoError(t, s.Upsert(ctx, "opposite", []float32{-1, 0, 0}, Payload{}))

	matches, err := s.Knn(ctx, []float32{1, 0, 0}, 3, Filter{})
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "identical", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
	assert.Equal(t, "orthogonal", matches[1].ID)
	assert.InDelta(t, 0.0, matches[1].Similarity, 1e-6)
	assert.Equal(t, "opposite", matches[2].ID)
	assert.InDelta(t, -1.0, matches[2].Similarity, 1e-6)
}

func TestKnnRespectsFilterAndK(t *testing.T) {
	s, err := NewStore(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "a", []float32{1, 0}, Payload{Category: "button"}))
	require.NoError(t, s.Upsert(ctx, "b", []float32{1, 0}, Payload{Category: "modal"}))

	matches, err := s.Knn(ctx, []float32{1, 0}, 10, Filter{Category: "button"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
}

func TestDeleteRemovesRecord(t *testing.T) {
	s, err := NewStore(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "a", []float32{1, 0}, Payload{}))
	require.NoError(t, s.Delete(ctx, "a"))

	matches, err := s.Knn(ctx, []float32{1, 0}, 10, Filter{})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestNormaliseSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, NormaliseSimilarity(1.0), 1e-9)
	assert.InDelta(t, 0.5, NormaliseSimilarity(0.0), 1e-9)
	assert.InDelta(t, 0.0, NormaliseSimilarity(-1.0), 1e-9)
}

func TestOperationsFailAfterClose(t *testing.T) {
	s, err := NewStore(2)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Upsert(context.Background(), "a", []float32{1, 0}, Payload{})
	assert.ErrorIs(t, err, cgerr.ErrRetrievalUnavailable)
}
