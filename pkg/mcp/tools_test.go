package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetToolDefinitionsReturnsSixDistinctlyNamedTools(t *testing.T) {
	tools := GetToolDefinitions()
	require.Len(t, tools, 6)

	seen := map[string]bool{}
	for _, tool := range tools {
		assert.NotEmpty(t, tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.False(t, seen[tool.Name], "duplicate tool name %q", tool.Name)
		seen[tool.Name] = true

		var schema map[string]interface{}
		require.NoError(t, json.Unmarshal(tool.InputSchema, &schema))
		assert.Equal(t, "object", schema["type"])
	}
}

func TestQueryToolRequiresNLText(t *testing.T) {
	tool := getQueryTool()

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(tool.InputSchema, &schema))

	required, ok := schema["required"].([]interface{})
	require.True(t, ok)
	assert.Contains(t, required, "nl_text")
}
