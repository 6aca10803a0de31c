package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charlenopires/codegraph/pkg/cgerr"
)

// MemoryRepository is a thread-safe in-memory Repository. It is used by unit
// tests and by small deployments that run CodeGraph's core without a
// durable store behind it.
type MemoryRepository struct {
	mu sync.RWMutex

	entities map[EntityID]*Entity

	// outgoing[from][type] holds every relation of that type leaving from.
	outgoing map[EntityID]map[RelationType][]Relation

	byCategory     map[Category]map[EntityID]struct{}
	byDesignSystem map[DesignSystem]map[EntityID]struct{}

	closed bool
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entities:       make(map[EntityID]*Entity),
		outgoing:       make(map[EntityID]map[RelationType][]Relation),
		byCategory:     make(map[Category]map[EntityID]struct{}),
		byDesignSystem: make(map[DesignSystem]map[EntityID]struct{}),
	}
}

func (m *MemoryRepository) Get(_ context.Context, id EntityID) (*Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("%w: repository closed", cgerr.ErrRetrievalUnavailable)
	}

	e, ok := m.entities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", cgerr.ErrEntityNotFound, id)
	}
	return copyEntity(e), nil
}

func (m *MemoryRepository) Upsert(_ context.Context, e *Entity) error {
	if e == nil || e.ID == "" {
		return fmt.Errorf("%w: entity must have a non-empty ID", cgerr.ErrConfigInvalid)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("%w: repository closed", cgerr.ErrRetrievalUnavailable)
	}

	if old, exists := m.entities[e.ID]; exists {
		m.unindex(old)
	}

	stored := copyEntity(e)
	m.entities[e.ID] = stored
	m.index(stored)
	return nil
}

func (m *MemoryRepository) UpsertRelation(_ context.Context, r Relation) error {
	if r.From == "" || r.To == "" || r.Type == "" {
		return fmt.Errorf("%w: relation requires From, To and Type", cgerr.ErrConfigInvalid)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("%w: repository closed", cgerr.ErrRetrievalUnavailable)
	}

	bucket := m.outgoing[r.From]
	if bucket == nil {
		bucket = make(map[RelationType][]Relation)
		m.outgoing[r.From] = bucket
	}

	rels := bucket[r.Type]
	for i, existing := range rels {
		if existing.To == r.To {
			rels[i] = r
			bucket[r.Type] = rels
			return nil
		}
	}
	bucket[r.Type] = append(rels, r)
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id EntityID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("%w: repository closed", cgerr.ErrRetrievalUnavailable)
	}

	e, ok := m.entities[id]
	if !ok {
		return fmt.Errorf("%w: %s", cgerr.ErrEntityNotFound, id)
	}
	m.unindex(e)
	delete(m.entities, id)
	delete(m.outgoing, id)

	for from, bucket := range m.outgoing {
		for relType, rels := range bucket {
			kept := rels[:0]
			for _, r := range rels {
				if r.To != id {
					kept = append(kept, r)
				}
			}
			bucket[relType] = kept
		}
		m.outgoing[from] = bucket
	}
	return nil
}

// Neighbours performs a breadth-first traversal up to depthLimit hops,
// restricted to relTypes (all types if relTypes is empty). SIMILAR_TO is
// traversed symmetrically: a row stored From->To also yields a neighbour
// when querying from To, matching the two-directed-rows storage decision.
func (m *MemoryRepository) Neighbours(_ context.Context, id EntityID, relTypes []RelationType, depthLimit int) ([]Neighbour, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("%w: repository closed", cgerr.ErrRetrievalUnavailable)
	}
	if _, ok := m.entities[id]; !ok {
		return nil, fmt.Errorf("%w: %s", cgerr.ErrEntityNotFound, id)
	}
	if depthLimit <= 0 {
		return nil, nil
	}

	wanted := make(map[RelationType]bool, len(relTypes))
	for _, rt := range relTypes {
		wanted[rt] = true
	}
	allowed := func(rt RelationType) bool {
		return len(wanted) == 0 || wanted[rt]
	}

	visited := map[EntityID]bool{id: true}
	type frontierEntry struct {
		id         EntityID
		depth      int
		pathWeight float64
	}
	frontier := []frontierEntry{{id: id, depth: 0, pathWeight: 1.0}}
	var out []Neighbour

	for len(frontier) > 0 && frontier[0].depth < depthLimit {
		next := make([]frontierEntry, 0)
		for _, cur := range frontier {
			for _, rel := range m.relationsFrom(cur.id) {
				if !allowed(rel.Type) || visited[rel.To] {
					continue
				}
				target, ok := m.entities[rel.To]
				if !ok {
					continue
				}
				visited[rel.To] = true
				weight := cur.pathWeight * rel.Weight
				out = append(out, Neighbour{
					Entity:     copyEntity(target),
					Relation:   rel,
					Depth:      cur.depth + 1,
					PathWeight: weight,
				})
				next = append(next, frontierEntry{id: rel.To, depth: cur.depth + 1, pathWeight: weight})
			}
		}
		frontier = next
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].Entity.ID < out[j].Entity.ID
	})
	return out, nil
}

// relationsFrom returns every outgoing relation from id, plus the synthetic
// reverse of any SIMILAR_TO relation pointing at id from elsewhere — a
// fallback for data written before the two-row convention was enforced.
func (m *MemoryRepository) relationsFrom(id EntityID) []Relation {
	var out []Relation
	for _, rels := range m.outgoing[id] {
		out = append(out, rels...)
	}
	for from, bucket := range m.outgoing {
		if from == id {
			continue
		}
		for _, r := range bucket[RelSimilarTo] {
			if r.To == id {
				out = append(out, Relation{From: id, To: from, Type: RelSimilarTo, Weight: r.Weight, Truth: r.Truth})
			}
		}
	}
	return out
}

func (m *MemoryRepository) QueryByTerms(_ context.Context, terms []string, relTypes []RelationType) ([]*Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("%w: repository closed", cgerr.ErrRetrievalUnavailable)
	}

	wanted := make(map[RelationType]bool, len(relTypes))
	for _, rt := range relTypes {
		wanted[rt] = true
	}
	termSet := make(map[string]bool, len(terms))
	for _, t := range terms {
		termSet[t] = true
	}

	seen := make(map[EntityID]struct{})
	var out []*Entity
	for from, bucket := range m.outgoing {
		for relType, rels := range bucket {
			if len(wanted) > 0 && !wanted[relType] {
				continue
			}
			for _, r := range rels {
				if !termSet[string(r.To)] {
					continue
				}
				if _, dup := seen[from]; dup {
					continue
				}
				e, ok := m.entities[from]
				if !ok {
					continue
				}
				seen[from] = struct{}{}
				out = append(out, copyEntity(e))
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{
		ByCategory:     make(map[Category]int),
		ByDesignSystem: make(map[DesignSystem]int),
	}
	s.TotalEntities = len(m.entities)

	relCount := 0
	for _, bucket := range m.outgoing {
		for _, rels := range bucket {
			relCount += len(rels)
		}
	}
	s.TotalRelations = relCount

	for cat, ids := range m.byCategory {
		s.ByCategory[cat] = len(ids)
	}
	for ds, ids := range m.byDesignSystem {
		s.ByDesignSystem[ds] = len(ids)
	}

	if s.TotalEntities > 0 {
		s.AverageDegree = float64(relCount) / float64(s.TotalEntities)
	}
	return s, nil
}

func (m *MemoryRepository) Page(_ context.Context, pageNum, perPage int, category *Category, designSystem *DesignSystem) (Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if pageNum < 1 {
		pageNum = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	var ids []EntityID
	for id := range m.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var filtered []*Entity
	for _, id := range ids {
		e := m.entities[id]
		if category != nil && e.Category != *category {
			continue
		}
		if designSystem != nil && e.DesignSystem != *designSystem {
			continue
		}
		filtered = append(filtered, e)
	}

	total := len(filtered)
	start := (pageNum - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	page := Page{Total: total, PageNum: pageNum, PerPage: perPage}
	for _, e := range filtered[start:end] {
		page.Elements = append(page.Elements, copyEntity(e))
	}
	return page, nil
}

func (m *MemoryRepository) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemoryRepository) index(e *Entity) {
	if e.Category != "" {
		if m.byCategory[e.Category] == nil {
			m.byCategory[e.Category] = make(map[EntityID]struct{})
		}
		m.byCategory[e.Category][e.ID] = struct{}{}
	}
	if e.DesignSystem != "" {
		if m.byDesignSystem[e.DesignSystem] == nil {
			m.byDesignSystem[e.DesignSystem] = make(map[EntityID]struct{})
		}
		m.byDesignSystem[e.DesignSystem][e.ID] = struct{}{}
	}
}

func (m *MemoryRepository) unindex(e *Entity) {
	if ids, ok := m.byCategory[e.Category]; ok {
		delete(ids, e.ID)
	}
	if ids, ok := m.byDesignSystem[e.DesignSystem]; ok {
		delete(ids, e.ID)
	}
}

func copyEntity(e *Entity) *Entity {
	cp := *e
	cp.Tags = append([]string(nil), e.Tags...)
	cp.NarseseStatements = append([]string(nil), e.NarseseStatements...)
	return &cp
}

var _ Repository = (*MemoryRepository)(nil)
