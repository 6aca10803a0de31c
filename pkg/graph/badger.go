package graph

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/charlenopires/codegraph/pkg/cgerr"
)

// Key prefixes for BadgerDB storage organisation, following the teacher's
// single-byte-prefix scheme.
const (
	prefixEntity           = byte(0x01) // entity:entityID -> gob(Entity)
	prefixRelationOutgoing = byte(0x02) // rel_out:fromID:0x00:type:0x00:toID -> gob(Relation)
	prefixCategoryIndex    = byte(0x03) // cat:category:0x00:entityID -> empty
	prefixDesignSysIndex   = byte(0x04) // ds:designSystem:0x00:entityID -> empty
)

// BadgerRepository is a persistent, BadgerDB-backed Repository. It mirrors
// the teacher's key-prefix and gob-encoding conventions, generalised from
// labelled nodes/edges to CodeGraph's fixed Entity/Relation shapes.
type BadgerRepository struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// BadgerRepositoryOptions configures a BadgerRepository.
type BadgerRepositoryOptions struct {
	// DataDir is the directory for storing data files. Required unless
	// InMemory is set.
	DataDir string

	// InMemory runs BadgerDB in memory-only mode. Data is not persisted;
	// useful for tests that want BadgerRepository's exact code path
	// without disk I/O.
	InMemory bool

	// SyncWrites forces fsync after each write.
	SyncWrites bool
}

// NewBadgerRepository opens (or creates) a persistent repository at
// opts.DataDir, or an ephemeral in-memory one when opts.InMemory is set.
func NewBadgerRepository(opts BadgerRepositoryOptions) (*BadgerRepository, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir)
	badgerOpts = badgerOpts.WithInMemory(opts.InMemory)
	badgerOpts = badgerOpts.WithSyncWrites(opts.SyncWrites)
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger store: %v", cgerr.ErrRetrievalUnavailable, err)
	}
	return &BadgerRepository{db: db}, nil
}

func entityKey(id EntityID) []byte {
	return append([]byte{prefixEntity}, []byte(id)...)
}

func relationKey(r Relation) []byte {
	key := make([]byte, 0, 1+len(r.From)+1+len(r.Type)+1+len(r.To))
	key = append(key, prefixRelationOutgoing)
	key = append(key, []byte(r.From)...)
	key = append(key, 0x00)
	key = append(key, []byte(r.Type)...)
	key = append(key, 0x00)
	key = append(key, []byte(r.To)...)
	return key
}

func relationPrefix(from EntityID) []byte {
	key := make([]byte, 0, 1+len(from)+1)
	key = append(key, prefixRelationOutgoing)
	key = append(key, []byte(from)...)
	key = append(key, 0x00)
	return key
}

func categoryIndexKey(c Category, id EntityID) []byte {
	key := make([]byte, 0, 1+len(c)+1+len(id))
	key = append(key, prefixCategoryIndex)
	key = append(key, []byte(c)...)
	key = append(key, 0x00)
	key = append(key, []byte(id)...)
	return key
}

func categoryIndexPrefix(c Category) []byte {
	key := make([]byte, 0, 1+len(c)+1)
	key = append(key, prefixCategoryIndex)
	key = append(key, []byte(c)...)
	key = append(key, 0x00)
	return key
}

func designSystemIndexKey(ds DesignSystem, id EntityID) []byte {
	key := make([]byte, 0, 1+len(ds)+1+len(id))
	key = append(key, prefixDesignSysIndex)
	key = append(key, []byte(ds)...)
	key = append(key, 0x00)
	key = append(key, []byte(id)...)
	return key
}

func designSystemIndexPrefix(ds DesignSystem) []byte {
	key := make([]byte, 0, 1+len(ds)+1)
	key = append(key, prefixDesignSysIndex)
	key = append(key, []byte(ds)...)
	key = append(key, 0x00)
	return key
}

func encodeEntity(e *Entity) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeEntity(data []byte) (*Entity, error) {
	var e Entity
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

func encodeRelation(r Relation) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRelation(data []byte) (Relation, error) {
	var r Relation
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&r); err != nil {
		return Relation{}, err
	}
	return r, nil
}

func (b *BadgerRepository) Get(_ context.Context, id EntityID) (*Entity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("%w: repository closed", cgerr.ErrRetrievalUnavailable)
	}

	var e *Entity
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entityKey(id))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", cgerr.ErrEntityNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decodeErr error
			e, decodeErr = decodeEntity(val)
			return decodeErr
		})
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (b *BadgerRepository) Upsert(_ context.Context, e *Entity) error {
	if e == nil || e.ID == "" {
		return fmt.Errorf("%w: entity must have a non-empty ID", cgerr.ErrConfigInvalid)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("%w: repository closed", cgerr.ErrRetrievalUnavailable)
	}

	data, err := encodeEntity(e)
	if err != nil {
		return fmt.Errorf("failed to encode entity: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(entityKey(e.ID), data); err != nil {
			return err
		}
		if e.Category != "" {
			if err := txn.Set(categoryIndexKey(e.Category, e.ID), []byte{}); err != nil {
				return err
			}
		}
		if e.DesignSystem != "" {
			if err := txn.Set(designSystemIndexKey(e.DesignSystem, e.ID), []byte{}); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertRelation stores r under fromID:type:toID. Per the two-directed-rows
// convention, a SIMILAR_TO relation must be upserted once in each
// direction by the caller; Neighbours additionally falls back to a reverse
// scan so older single-row data still traverses symmetrically.
func (b *BadgerRepository) UpsertRelation(_ context.Context, r Relation) error {
	if r.From == "" || r.To == "" || r.Type == "" {
		return fmt.Errorf("%w: relation requires From, To and Type", cgerr.ErrConfigInvalid)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("%w: repository closed", cgerr.ErrRetrievalUnavailable)
	}

	data, err := encodeRelation(r)
	if err != nil {
		return fmt.Errorf("failed to encode relation: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(relationKey(r), data)
	})
}

func (b *BadgerRepository) Delete(_ context.Context, id EntityID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("%w: repository closed", cgerr.ErrRetrievalUnavailable)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(entityKey(id))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", cgerr.ErrEntityNotFound, id)
		}
		if err != nil {
			return err
		}
		var e *Entity
		if err := item.Value(func(val []byte) error {
			var decodeErr error
			e, decodeErr = decodeEntity(val)
			return decodeErr
		}); err != nil {
			return err
		}

		if err := txn.Delete(entityKey(id)); err != nil {
			return err
		}
		if e.Category != "" {
			if err := txn.Delete(categoryIndexKey(e.Category, id)); err != nil {
				return err
			}
		}
		if e.DesignSystem != "" {
			if err := txn.Delete(designSystemIndexKey(e.DesignSystem, id)); err != nil {
				return err
			}
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte{prefixRelationOutgoing}
		var toDelete [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r Relation
			if err := it.Item().Value(func(val []byte) error {
				var decodeErr error
				r, decodeErr = decodeRelation(val)
				return decodeErr
			}); err != nil {
				return err
			}
			if r.From == id || r.To == id {
				toDelete = append(toDelete, append([]byte(nil), it.Item().Key()...))
			}
		}
		for _, k := range toDelete {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerRepository) relationsFrom(txn *badger.Txn, id EntityID) ([]Relation, error) {
	var out []Relation
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := relationPrefix(id)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var r Relation
		if err := it.Item().Value(func(val []byte) error {
			var decodeErr error
			r, decodeErr = decodeRelation(val)
			return decodeErr
		}); err != nil {
			return nil, err
		}
		out = append(out, r)
	}

	// Reverse SIMILAR_TO scan: any row elsewhere pointing at id counts as
	// a neighbour too, so traversal stays symmetric even for data that
	// predates the two-row convention.
	all := byte(prefixRelationOutgoing)
	it2 := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it2.Close()
	for it2.Seek([]byte{all}); it2.ValidForPrefix([]byte{all}); it2.Next() {
		var r Relation
		if err := it2.Item().Value(func(val []byte) error {
			var decodeErr error
			r, decodeErr = decodeRelation(val)
			return decodeErr
		}); err != nil {
			return nil, err
		}
		if r.Type == RelSimilarTo && r.To == id && r.From != id {
			out = append(out, Relation{From: id, To: r.From, Type: RelSimilarTo, Weight: r.Weight, Truth: r.Truth})
		}
	}
	return out, nil
}

func (b *BadgerRepository) Neighbours(_ context.Context, id EntityID, relTypes []RelationType, depthLimit int) ([]Neighbour, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("%w: repository closed", cgerr.ErrRetrievalUnavailable)
	}
	if depthLimit <= 0 {
		return nil, nil
	}

	wanted := make(map[RelationType]bool, len(relTypes))
	for _, rt := range relTypes {
		wanted[rt] = true
	}
	allowed := func(rt RelationType) bool { return len(wanted) == 0 || wanted[rt] }

	var out []Neighbour
	err := b.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(entityKey(id)); err != nil {
			if err == badger.ErrKeyNotFound {
				return fmt.Errorf("%w: %s", cgerr.ErrEntityNotFound, id)
			}
			return err
		}

		type frontierEntry struct {
			id         EntityID
			depth      int
			pathWeight float64
		}
		visited := map[EntityID]bool{id: true}
		frontier := []frontierEntry{{id: id, depth: 0, pathWeight: 1.0}}

		for len(frontier) > 0 && frontier[0].depth < depthLimit {
			var next []frontierEntry
			for _, cur := range frontier {
				rels, err := b.relationsFrom(txn, cur.id)
				if err != nil {
					return err
				}
				for _, r := range rels {
					if !allowed(r.Type) || visited[r.To] {
						continue
					}
					item, err := txn.Get(entityKey(r.To))
					if err == badger.ErrKeyNotFound {
						continue
					}
					if err != nil {
						return err
					}
					var target *Entity
					if err := item.Value(func(val []byte) error {
						var decodeErr error
						target, decodeErr = decodeEntity(val)
						return decodeErr
					}); err != nil {
						return err
					}

					visited[r.To] = true
					weight := cur.pathWeight * r.Weight
					out = append(out, Neighbour{
						Entity:     target,
						Relation:   r,
						Depth:      cur.depth + 1,
						PathWeight: weight,
					})
					next = append(next, frontierEntry{id: r.To, depth: cur.depth + 1, pathWeight: weight})
				}
			}
			frontier = next
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *BadgerRepository) QueryByTerms(_ context.Context, terms []string, relTypes []RelationType) ([]*Entity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("%w: repository closed", cgerr.ErrRetrievalUnavailable)
	}

	termSet := make(map[string]bool, len(terms))
	for _, t := range terms {
		termSet[t] = true
	}
	wantRel := make(map[RelationType]bool, len(relTypes))
	for _, rt := range relTypes {
		wantRel[rt] = true
	}
	useCategory := len(wantRel) == 0 || wantRel[RelHasCategory]
	useDesignSys := len(wantRel) == 0 || wantRel[RelUsesDesignSystem]

	seen := make(map[EntityID]struct{})
	var out []*Entity

	err := b.db.View(func(txn *badger.Txn) error {
		collect := func(ids map[EntityID]struct{}) error {
			for id := range ids {
				if _, dup := seen[id]; dup {
					continue
				}
				item, err := txn.Get(entityKey(id))
				if err != nil {
					continue
				}
				var e *Entity
				if err := item.Value(func(val []byte) error {
					var decodeErr error
					e, decodeErr = decodeEntity(val)
					return decodeErr
				}); err != nil {
					return err
				}
				seen[id] = struct{}{}
				out = append(out, e)
			}
			return nil
		}

		for term := range termSet {
			if useCategory {
				ids := make(map[EntityID]struct{})
				prefix := categoryIndexPrefix(Category(term))
				it := txn.NewIterator(badger.DefaultIteratorOptions)
				for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
					ids[EntityID(it.Item().Key()[len(prefix):])] = struct{}{}
				}
				it.Close()
				if err := collect(ids); err != nil {
					return err
				}
			}
			if useDesignSys {
				ids := make(map[EntityID]struct{})
				prefix := designSystemIndexPrefix(DesignSystem(term))
				it := txn.NewIterator(badger.DefaultIteratorOptions)
				for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
					ids[EntityID(it.Item().Key()[len(prefix):])] = struct{}{}
				}
				it.Close()
				if err := collect(ids); err != nil {
					return err
				}
			}
		}

		relIDs := make(map[EntityID]struct{})
		rit := txn.NewIterator(badger.DefaultIteratorOptions)
		defer rit.Close()
		for rit.Seek([]byte{prefixRelationOutgoing}); rit.ValidForPrefix([]byte{prefixRelationOutgoing}); rit.Next() {
			if err := rit.Item().Value(func(val []byte) error {
				r, decodeErr := decodeRelation(val)
				if decodeErr == nil && (len(wantRel) == 0 || wantRel[r.Type]) && termSet[string(r.To)] {
					relIDs[r.From] = struct{}{}
				}
				return decodeErr
			}); err != nil {
				return err
			}
		}
		return collect(relIDs)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *BadgerRepository) Stats(_ context.Context) (Stats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := Stats{ByCategory: make(map[Category]int), ByDesignSystem: make(map[DesignSystem]int)}

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		entityPrefix := []byte{prefixEntity}
		for it.Seek(entityPrefix); it.ValidForPrefix(entityPrefix); it.Next() {
			s.TotalEntities++
		}

		relPrefix := []byte{prefixRelationOutgoing}
		for it.Seek(relPrefix); it.ValidForPrefix(relPrefix); it.Next() {
			s.TotalRelations++
		}

		catPrefix := []byte{prefixCategoryIndex}
		for it.Seek(catPrefix); it.ValidForPrefix(catPrefix); it.Next() {
			key := it.Item().Key()[1:]
			sep := bytes.IndexByte(key, 0x00)
			if sep < 0 {
				continue
			}
			s.ByCategory[Category(key[:sep])]++
		}

		dsPrefix := []byte{prefixDesignSysIndex}
		for it.Seek(dsPrefix); it.ValidForPrefix(dsPrefix); it.Next() {
			key := it.Item().Key()[1:]
			sep := bytes.IndexByte(key, 0x00)
			if sep < 0 {
				continue
			}
			s.ByDesignSystem[DesignSystem(key[:sep])]++
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	if s.TotalEntities > 0 {
		s.AverageDegree = float64(s.TotalRelations) / float64(s.TotalEntities)
	}
	return s, nil
}

func (b *BadgerRepository) Page(_ context.Context, pageNum, perPage int, category *Category, designSystem *DesignSystem) (Page, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if pageNum < 1 {
		pageNum = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	var filtered []*Entity
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte{prefixEntity}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var e *Entity
			if err := it.Item().Value(func(val []byte) error {
				var decodeErr error
				e, decodeErr = decodeEntity(val)
				return decodeErr
			}); err != nil {
				return err
			}
			if category != nil && e.Category != *category {
				continue
			}
			if designSystem != nil && e.DesignSystem != *designSystem {
				continue
			}
			filtered = append(filtered, e)
		}
		return nil
	})
	if err != nil {
		return Page{}, err
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
	return Page{Elements: filtered[start:end], Total: total, PageNum: pageNum, PerPage: perPage}, nil
}

func (b *BadgerRepository) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

var _ Repository = (*BadgerRepository)(nil)
