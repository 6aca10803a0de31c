// Package mcp exposes CodeGraph's Go API as Model Context Protocol tool
// definitions, so an LLM agent can call query/upsert/feedback operations
// the same way pkg/server exposes them over HTTP — a second, tool-shaped
// adapter over the same core, not a second implementation of it.
package mcp

import "encoding/json"

// Tool is a single MCP tool definition: a name, a human-readable
// description written for an LLM caller, and a JSON Schema for its
// arguments.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Tool names, verb-noun per the teacher's naming convention.
const (
	ToolQuery            = "query_components"
	ToolUpsertEntity     = "upsert_entity"
	ToolUpsertStatements = "upsert_statements"
	ToolSubmitFeedback   = "submit_feedback"
	ToolGraphStats       = "graph_stats"
	ToolGraphPage        = "graph_page"
)

// GetToolDefinitions returns every MCP tool CodeGraph exposes.
func GetToolDefinitions() []Tool {
	return []Tool{
		getQueryTool(),
		getUpsertEntityTool(),
		getUpsertStatementsTool(),
		getSubmitFeedbackTool(),
		getGraphStatsTool(),
		getGraphPageTool(),
	}
}

func mustSchema(schema map[string]interface{}) json.RawMessage {
	b, _ := json.Marshal(schema)
	return b
}

func getQueryTool() Tool {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"nl_text": map[string]interface{}{
				"type":        "string",
				"description": "Natural-language description of the UI component you're looking for.",
			},
			"design_system": map[string]interface{}{
				"type":        "string",
				"description": "Restrict results to a design system, e.g. material-ui.",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of ranked elements to return.",
				"default":     10,
			},
			"include_reasoning": map[string]interface{}{
				"type":        "boolean",
				"description": "Include a natural-language explanation of the symbolic reasoning chain.",
				"default":     false,
			},
			"inference_cycles": map[string]interface{}{
				"type":        "integer",
				"description": "Bound on the reasoner's inference cycles for this query.",
				"default":     100,
			},
		},
		"required": []string{"nl_text"},
	}
	return Tool{
		Name: ToolQuery,
		Description: `Find reusable UI components matching a natural-language description.
Fuses vector similarity, graph structure, and symbolic reasoning into one ranked list.

Examples:
- query_components(nl_text="a searchable dropdown for selecting a country")
- query_components(nl_text="modal dialog with confirm and cancel", design_system="material-ui")`,
		InputSchema: mustSchema(schema),
	}
}

func getUpsertEntityTool() Tool {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id":            map[string]interface{}{"type": "string", "description": "Entity ID; generated if omitted."},
			"name":          map[string]interface{}{"type": "string"},
			"category":      map[string]interface{}{"type": "string", "description": "Ontology category, e.g. forms, navigation, layout."},
			"design_system": map[string]interface{}{"type": "string"},
			"tags":          map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		},
		"required": []string{"name", "category"},
	}
	return Tool{
		Name:        ToolUpsertEntity,
		Description: "Create or update a UI component entity in the knowledge graph.",
		InputSchema: mustSchema(schema),
	}
}

func getUpsertStatementsTool() Tool {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"entity_id":  map[string]interface{}{"type": "string"},
			"statements": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "Narsese statement source strings, e.g. \"<date-picker --> forms>.\""},
		},
		"required": []string{"entity_id", "statements"},
	}
	return Tool{
		Name:        ToolUpsertStatements,
		Description: "Attach symbolic statements to an existing entity for the reasoner to draw on.",
		InputSchema: mustSchema(schema),
	}
}

func getSubmitFeedbackTool() Tool {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"element_id":    map[string]interface{}{"type": "string"},
			"feedback_type": map[string]interface{}{"type": "string", "enum": []string{"positive", "negative"}},
			"query_context": map[string]interface{}{"type": "string"},
			"comment":       map[string]interface{}{"type": "string"},
		},
		"required": []string{"element_id", "feedback_type"},
	}
	return Tool{
		Name:        ToolSubmitFeedback,
		Description: "Record a thumbs-up/thumbs-down signal on a returned element, propagating a confidence update through the graph.",
		InputSchema: mustSchema(schema),
	}
}

func getGraphStatsTool() Tool {
	schema := map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	return Tool{
		Name:        ToolGraphStats,
		Description: "Return aggregate graph statistics: entity/relation counts, breakdowns by category and design system, average degree.",
		InputSchema: mustSchema(schema),
	}
}

func getGraphPageTool() Tool {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"page":          map[string]interface{}{"type": "integer", "default": 1},
			"per_page":      map[string]interface{}{"type": "integer", "default": 20},
			"category":      map[string]interface{}{"type": "string"},
			"design_system": map[string]interface{}{"type": "string"},
		},
	}
	return Tool{
		Name:        ToolGraphPage,
		Description: "Page through the graph's entities, optionally filtered by category or design system.",
		InputSchema: mustSchema(schema),
	}
}
