package translator

import "github.com/charlenopires/codegraph/pkg/graph"

// nounCategories maps recognised nouns to the ontology category they name.
// This is a representative slice of the ~40-tag ontology spec.md
// describes as ingestion-owned data; the translator only needs enough of
// it to drive the offline fallback and constraint extraction.
var nounCategories = map[string]graph.Category{
	"button":     "button",
	"buttons":    "button",
	"modal":      "modal",
	"dialog":     "modal",
	"dropdown":   "dropdown",
	"select":     "dropdown",
	"card":       "card",
	"tile":       "card",
	"input":      "input",
	"field":      "input",
	"table":      "table",
	"grid":       "table",
	"navbar":     "navigation",
	"nav":        "navigation",
	"menu":       "navigation",
	"tabs":       "navigation",
	"tooltip":    "overlay",
	"popover":    "overlay",
	"toast":      "feedback",
	"alert":      "feedback",
	"badge":      "display",
	"avatar":     "display",
	"icon":       "display",
	"heading":    "typography",
	"text":       "typography",
	"label":      "typography",
	"image":      "media",
	"video":      "media",
	"carousel":   "media",
	"form":       "forms",
	"checkbox":   "forms",
	"radio":      "forms",
	"accordion":  "layout",
	"sidebar":    "layout",
	"container":  "layout",
	"breadcrumb": "navigation",
}

// recognisedAdjectives is the small fixed vocabulary of properties the
// offline translator emits as property statements.
var recognisedAdjectives = map[string]bool{
	"disabled": true, "primary": true, "secondary": true, "large": true,
	"small": true, "rounded": true, "outlined": true, "filled": true,
	"responsive": true, "interactive": true, "accessible": true,
	"clickable": true, "draggable": true, "collapsible": true,
}

var designSystemVocabulary = map[string]graph.DesignSystem{
	"material":     graph.DesignSystemMaterialUI,
	"material-ui":  graph.DesignSystemMaterialUI,
	"mui":          graph.DesignSystemMaterialUI,
	"tailwind":     graph.DesignSystemTailwind,
	"tailwindcss":  graph.DesignSystemTailwind,
	"chakra":       graph.DesignSystemChakra,
	"bootstrap":    graph.DesignSystemBootstrap,
	"antd":         graph.DesignSystemAntDesign,
	"ant-design":   graph.DesignSystemAntDesign,
	"shadcn":       graph.DesignSystemShadcn,
	"shadcn/ui":    graph.DesignSystemShadcn,
}
