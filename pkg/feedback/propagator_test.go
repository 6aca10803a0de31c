package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlenopires/codegraph/pkg/cgerr"
	"github.com/charlenopires/codegraph/pkg/graph"
	"github.com/charlenopires/codegraph/pkg/truth"
)

func newEntity(id graph.EntityID, f, c float64) *graph.Entity {
	return &graph.Entity{
		ID:           id,
		Name:         string(id),
		Category:     "button",
		DesignSystem: graph.DesignSystemTailwind,
		Truth:        truth.Value{F: f, C: c},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func newRepoWithEntities(t *testing.T, entities ...*graph.Entity) graph.Repository {
	t.Helper()
	repo := graph.NewMemoryRepository()
	for _, e := range entities {
		require.NoError(t, repo.Upsert(context.Background(), e))
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// TestDirectUpdateMatchesWorkedExample covers spec.md §8 scenario 3:
// entity at ⟨0.5,0.5⟩ receives positive feedback and revises to
// ⟨0.95, 0.909...⟩.
func TestDirectUpdateMatchesWorkedExample(t *testing.T) {
	repo := newRepoWithEntities(t, newEntity("e1", 0.5, 0.5))
	p := New(DefaultConfig(), repo, NewMemoryAuditLog())

	update, err := p.Submit(context.Background(), Event{ID: "ev1", ElementID: "e1", Kind: KindPositive, CreatedAt: time.Now()})
	require.NoError(t, err)

	e, err := repo.Get(context.Background(), "e1")
	require.NoError(t, err)
	assert.InDelta(t, 0.95, e.Truth.F, 1e-3)
	assert.InDelta(t, 10.0/11.0, e.Truth.C, 1e-3)
	assert.InDelta(t, 10.0/11.0-0.5, update.Delta, 1e-3)
	assert.True(t, update.IsIncrease())
}

// TestPropagationAttenuationMatchesWorkedExample covers spec.md §8
// scenario 4: a depth-1 SIMILAR_TO neighbour (weight 0.8) and a depth-2
// CAN_REPLACE neighbour (weight 1.0) receive the expected attenuated
// confidences.
func TestPropagationAttenuationMatchesWorkedExample(t *testing.T) {
	root := newEntity("root", 0.5, 0.0)
	mid := newEntity("mid", 0.5, 0.0)
	leaf := newEntity("leaf", 0.5, 0.0)
	repo := newRepoWithEntities(t, root, mid, leaf)

	require.NoError(t, repo.UpsertRelation(context.Background(), graph.Relation{
		From: "root", To: "mid", Type: graph.RelSimilarTo, Weight: 0.8,
	}))
	require.NoError(t, repo.UpsertRelation(context.Background(), graph.Relation{
		From: "mid", To: "leaf", Type: graph.RelCanReplace, Weight: 1.0,
	}))

	cfg := DefaultConfig()
	p := New(cfg, repo, NewMemoryAuditLog())

	// Direct update on root pushes its confidence to ~0.9; the propagated
	// signal starts from the configured positive confidence (0.9), the
	// worked example's c_signal basis.
	_, err := p.Submit(context.Background(), Event{ID: "ev1", ElementID: "root", Kind: KindPositive, CreatedAt: time.Now()})
	require.NoError(t, err)

	rootAfter, err := repo.Get(context.Background(), "root")
	require.NoError(t, err)
	require.InDelta(t, 0.9, rootAfter.Truth.C, 1e-9)

	midAfter, err := repo.Get(context.Background(), "mid")
	require.NoError(t, err)
	assert.InDelta(t, 0.9*0.5*0.8, midAfter.Truth.C, 1e-6)

	leafAfter, err := repo.Get(context.Background(), "leaf")
	require.NoError(t, err)
	assert.InDelta(t, 0.9*0.3*0.3*1.0, leafAfter.Truth.C, 1e-6)
}

func TestSubmitOnNonExistentEntityReturnsEntityNotFoundWithoutPropagation(t *testing.T) {
	repo := newRepoWithEntities(t)
	p := New(DefaultConfig(), repo, NewMemoryAuditLog())

	_, err := p.Submit(context.Background(), Event{ID: "ev1", ElementID: "missing", Kind: KindPositive, CreatedAt: time.Now()})
	require.ErrorIs(t, err, cgerr.ErrEntityNotFound)
}

func TestPropagationOnEntityWithNoOutgoingEdgesOnlyUpdatesRoot(t *testing.T) {
	repo := newRepoWithEntities(t, newEntity("lonely", 0.5, 0.5))
	audit := NewMemoryAuditLog()
	p := New(DefaultConfig(), repo, audit)

	_, err := p.Submit(context.Background(), Event{ID: "ev1", ElementID: "lonely", Kind: KindNegative, CreatedAt: time.Now()})
	require.NoError(t, err)

	assert.Len(t, audit.Records(), 1)
	assert.Equal(t, 0, audit.Records()[0].Depth)
}

func TestAuditWriteFollowsTruthWrite(t *testing.T) {
	repo := newRepoWithEntities(t, newEntity("e1", 0.5, 0.5))
	audit := NewMemoryAuditLog()
	p := New(DefaultConfig(), repo, audit)

	_, err := p.Submit(context.Background(), Event{ID: "ev1", ElementID: "e1", Kind: KindPositive, CreatedAt: time.Now()})
	require.NoError(t, err)

	recs := audit.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, graph.EntityID("e1"), recs[0].EntityID)
	assert.Equal(t, "ev1", recs[0].EventID)
	assert.InDelta(t, 0.5, recs[0].PreTruth.C, 1e-9)
}

// failingRepo wraps a Repository and rejects every Upsert, to exercise
// the retry/dead-letter path.
type failingRepo struct {
	graph.Repository
}

func (f *failingRepo) Upsert(ctx context.Context, e *graph.Entity) error {
	return errors.New("store unavailable")
}

func TestSubmitDeadLettersAfterMaxRetries(t *testing.T) {
	repo := newRepoWithEntities(t, newEntity("e1", 0.5, 0.5))
	p := New(DefaultConfig(), &failingRepo{Repository: repo}, NewMemoryAuditLog())
	p.sleep = func(time.Duration) {} // skip real backoff delay in tests

	_, err := p.Submit(context.Background(), Event{ID: "ev1", ElementID: "e1", Kind: KindPositive, CreatedAt: time.Now()})
	require.ErrorIs(t, err, cgerr.ErrFeedbackPermanent)
}

func TestConcurrentSubmitsToDisjointEntitiesDoNotDeadlock(t *testing.T) {
	repo := newRepoWithEntities(t, newEntity("a", 0.5, 0.5), newEntity("b", 0.5, 0.5))
	p := New(DefaultConfig(), repo, NewMemoryAuditLog())

	done := make(chan error, 2)
	go func() {
		_, err := p.Submit(context.Background(), Event{ID: "ev-a", ElementID: "a", Kind: KindPositive, CreatedAt: time.Now()})
		done <- err
	}()
	go func() {
		_, err := p.Submit(context.Background(), Event{ID: "ev-b", ElementID: "b", Kind: KindNegative, CreatedAt: time.Now()})
		done <- err
	}()

	for i := 0; i < 2; i++ {
		require.NoError(t, <-done)
	}
}
