package graph

import "context"

// Repository is the graph repository contract from spec.md §6:
// get/upsert/neighbours/query_by_terms/stats, all traversals depth-limited.
// HybridRetriever, FeedbackPropagator, and the external upsert interfaces
// depend only on this interface — never on a concrete store.
type Repository interface {
	// Get returns the Entity for id, or cgerr.ErrEntityNotFound.
	Get(ctx context.Context, id EntityID) (*Entity, error)

	// Upsert creates or replaces an Entity. Idempotent on ID.
	Upsert(ctx context.Context, e *Entity) error

	// UpsertRelation creates or replaces a typed edge. Idempotent on
	// (From, To, Type).
	UpsertRelation(ctx context.Context, r Relation) error

	// Delete removes an Entity and cascades to its incident relations.
	Delete(ctx context.Context, id EntityID) error

	// Neighbours returns entities reachable from id within depthLimit hops,
	// restricted to the given relation types. SIMILAR_TO traversal is
	// symmetric regardless of storage direction; CAN_REPLACE is followed
	// only in its stored direction.
	Neighbours(ctx context.Context, id EntityID, relTypes []RelationType, depthLimit int) ([]Neighbour, error)

	// QueryByTerms returns entities whose HAS_CATEGORY or
	// USES_DESIGN_SYSTEM target atom matches one of terms.
	QueryByTerms(ctx context.Context, terms []string, relTypes []RelationType) ([]*Entity, error)

	// Stats summarises the current graph.
	Stats(ctx context.Context) (Stats, error)

	// Page returns one page of entities, optionally filtered.
	Page(ctx context.Context, pageNum, perPage int, category *Category, designSystem *DesignSystem) (Page, error)

	// Close releases underlying resources (file handles, connections).
	Close() error
}
