// Package vectorstore implements the vector repository contract from
// spec.md §6: knn/upsert/delete against a fixed-dimension embedding space.
// The in-memory Store uses the teacher's SIMD cosine similarity kernel
// (pkg/simd, the same call path as pkg/math/vector/similarity.go) rather
// than a hand-rolled loop.
package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charlenopires/codegraph/pkg/cgerr"
	"github.com/charlenopires/codegraph/pkg/simd"
)

// Match is one result of a k-nearest-neighbours query: an entity ID paired
// with its raw cosine similarity in [-1, 1].
type Match struct {
	ID         string
	Similarity float64
}

// Filter restricts a knn query to records whose payload matches. Empty
// fields are wildcards.
type Filter struct {
	Category     string
	DesignSystem string
}

// Payload mirrors the minimum entity fields a vector record needs for
// constraint filtering, per spec.md §6.
type Payload struct {
	Category     string
	DesignSystem string
}

// Repository is the vector repository contract. Dimension is fixed at
// construction; Upsert rejects any vector of a different length.
type Repository interface {
	Knn(ctx context.Context, vector []float32, k int, filter Filter) ([]Match, error)
	Upsert(ctx context.Context, id string, vector []float32, payload Payload) error
	Delete(ctx context.Context, id string) error
	Dimension() int
	Close() error
}

type record struct {
	vector  []float32
	payload Payload
}

// Store is an in-memory Repository. It does a full scan per query, scored
// with simd.CosineSimilarity; adequate for the corpus sizes CodeGraph's
// in-process deployment targets, and it gives the persistent backend a
// drop-in fake for tests.
type Store struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]record
	closed    bool
}

// NewStore creates an empty Store fixed to dimension dim. dim must be
// positive; SPEC_FULL.md resolves the embedding dimension to 768 for the
// default deployment, but Store itself is dimension-agnostic.
func NewStore(dim int) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: vector dimension must be positive, got %d", cgerr.ErrConfigInvalid, dim)
	}
	return &Store{dimension: dim, records: make(map[string]record)}, nil
}

func (s *Store) Dimension() int { return s.dimension }

func (s *Store) Upsert(_ context.Context, id string, vector []float32, payload Payload) error {
	if id == "" {
		return fmt.Errorf("%w: vector record requires a non-empty id", cgerr.ErrConfigInvalid)
	}
	if len(vector) != s.dimension {
		return fmt.Errorf("%w: got %d, want %d", cgerr.ErrEmbeddingDimensionMismatch, len(vector), s.dimension)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: vector store closed", cgerr.ErrRetrievalUnavailable)
	}

	cp := make([]float32, len(vector))
	copy(cp, vector)
	s.records[id] = record{vector: cp, payload: payload}
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: vector store closed", cgerr.ErrRetrievalUnavailable)
	}
	delete(s.records, id)
	return nil
}

// Knn returns up to k matches ranked by cosine similarity descending,
// restricted to records whose payload satisfies filter.
func (s *Store) Knn(ctx context.Context, vector []float32, k int, filter Filter) ([]Match, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", cgerr.ErrEmbeddingDimensionMismatch, len(vector), s.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("%w: vector store closed", cgerr.ErrRetrievalUnavailable)
	}

	matches := make([]Match, 0, len(s.records))
	for id, rec := range s.records {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if filter.Category != "" && rec.payload.Category != filter.Category {
			continue
		}
		if filter.DesignSystem != "" && rec.payload.DesignSystem != filter.DesignSystem {
			continue
		}
		sim := float64(simd.CosineSimilarity(vector, rec.vector))
		matches = append(matches, Match{ID: id, Similarity: sim})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.records = nil
	return nil
}

// NormaliseSimilarity maps a cosine similarity in [-1, 1] to a score in
// [0, 1], per spec.md §6's vector-channel scoring rule.
func NormaliseSimilarity(cosine float64) float64 {
	return (cosine + 1) / 2
}

var _ Repository = (*Store)(nil)
