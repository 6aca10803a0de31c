// Package graph implements the Entity/Relation data model and the graph
// repository contract (spec.md §3, §6). The persistent implementation is
// grounded in the teacher's pkg/storage/badger.go key-prefix scheme,
// adapted from generic labelled nodes/edges to CodeGraph's fixed Entity
// and Relation shapes.
package graph

import (
	"time"

	"github.com/charlenopires/codegraph/pkg/truth"
)

// EntityID is a stable opaque identifier for a UI component instance.
type EntityID string

// DesignSystem enumerates the recognised component-library families.
type DesignSystem string

const (
	DesignSystemMaterialUI DesignSystem = "material-ui"
	DesignSystemTailwind   DesignSystem = "tailwind"
	DesignSystemChakra     DesignSystem = "chakra"
	DesignSystemBootstrap  DesignSystem = "bootstrap"
	DesignSystemAntDesign  DesignSystem = "ant-design"
	DesignSystemShadcn     DesignSystem = "shadcn"
	DesignSystemCustom     DesignSystem = "custom"
	DesignSystemUnknown    DesignSystem = "unknown"
)

// Category is one tag from the fixed ~40-tag ontology, grouped into the
// families named in spec.md §3. CodeGraph does not enumerate all ~40 as Go
// constants (the ontology is data, owned by the ingestion pipeline), and
// no membership check is made against it here.
type Category string

// CategoryGroup buckets categories for stats/filter UX.
type CategoryGroup string

const (
	GroupLayout     CategoryGroup = "layout"
	GroupNavigation CategoryGroup = "navigation"
	GroupForms      CategoryGroup = "forms"
	GroupActions    CategoryGroup = "actions"
	GroupDisplay    CategoryGroup = "display"
	GroupFeedback   CategoryGroup = "feedback"
	GroupOverlay    CategoryGroup = "overlay"
	GroupMedia      CategoryGroup = "media"
	GroupTypography CategoryGroup = "typography"
	GroupOther      CategoryGroup = "other"
)

// Entity is a UI component instance stored in the graph.
type Entity struct {
	ID                EntityID
	Name              string
	Category          Category
	DesignSystem      DesignSystem
	Tags              []string
	Truth             truth.Value
	EmbeddingRef       string
	NarseseStatements []string // raw symbolic-syntax strings; parse with pkg/statement on demand
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RelationType enumerates the typed edges between Entities (spec.md §3).
type RelationType string

const (
	RelSimilarTo         RelationType = "SIMILAR_TO"
	RelCanReplace        RelationType = "CAN_REPLACE"
	RelHasCategory       RelationType = "HAS_CATEGORY"
	RelUsesDesignSystem  RelationType = "USES_DESIGN_SYSTEM"
	RelDerivedFrom       RelationType = "DERIVED_FROM"
)

// Relation is a typed, weighted edge between two Entities. SIMILAR_TO is
// stored as two directed rows per the Open Question resolution in
// SPEC_FULL.md §8 (decision 3); traversal treats it as symmetric regardless
// of storage shape.
type Relation struct {
	From   EntityID
	To     EntityID
	Type   RelationType
	Weight float64
	Truth  *truth.Value
}

// Neighbour is one hop of a bounded traversal, carrying the path
// information HybridRetriever's graph channel needs to score and explain a
// candidate.
type Neighbour struct {
	Entity     *Entity
	Relation   Relation
	Depth      int
	PathWeight float64 // product of edge weights from the seed to this neighbour
}

// Stats summarises the graph for the graph_stats external interface.
type Stats struct {
	TotalEntities     int
	TotalRelations    int
	ByCategory        map[Category]int
	ByDesignSystem    map[DesignSystem]int
	AverageDegree     float64
}

// Page is one page of entities for the graph_page external interface.
type Page struct {
	Elements []*Entity
	Total    int
	PageNum  int
	PerPage  int
}
