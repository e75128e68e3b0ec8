package anthropic

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planweave/planweave/core"
	"github.com/planweave/planweave/model"
)

func schemaFormat() *model.ResponseFormat {
	return &model.ResponseFormat{
		Name: "brief_output",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"topic": map[string]any{"type": "string"}},
			"required":   []string{"topic"},
		},
	}
}

func searchToolDef() model.ToolDefinition {
	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "web_search",
			Description: "Search the web",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"query": map[string]any{"type": "string"}},
			},
		},
	}
}

func TestApplyStructuredOutput_ForcedWithoutTools(t *testing.T) {
	var params anthropic.MessageNewParams
	name, forced := applyStructuredOutput(&params, model.Request{
		ResponseFormat: schemaFormat(),
	})

	assert.Equal(t, "brief_output", name)
	assert.True(t, forced)
	require.NotNil(t, params.ToolChoice.OfTool)
	assert.Equal(t, "brief_output", params.ToolChoice.OfTool.Name)
	assert.Len(t, params.Tools, 1)
}

func TestApplyStructuredOutput_AutoWhileToolsPending(t *testing.T) {
	params := anthropic.MessageNewParams{
		Tools: buildTools([]model.ToolDefinition{searchToolDef()}),
	}
	name, forced := applyStructuredOutput(&params, model.Request{
		Tools:          []model.ToolDefinition{searchToolDef()},
		ResponseFormat: schemaFormat(),
		Contents: []core.Content{
			{Role: "user", Parts: []core.Part{core.TextPart{Text: "find lake towns"}}},
		},
	})

	assert.Equal(t, "brief_output", name)
	assert.False(t, forced)
	// Choice stays with the model so web_search remains callable.
	assert.Nil(t, params.ToolChoice.OfTool)
	assert.Len(t, params.Tools, 2)
}

func TestApplyStructuredOutput_ForcedAfterToolResults(t *testing.T) {
	params := anthropic.MessageNewParams{
		Tools: buildTools([]model.ToolDefinition{searchToolDef()}),
	}
	_, forced := applyStructuredOutput(&params, model.Request{
		Tools:          []model.ToolDefinition{searchToolDef()},
		ResponseFormat: schemaFormat(),
		Contents: []core.Content{
			{Role: "user", Parts: []core.Part{core.TextPart{Text: "find lake towns"}}},
			{Role: "assistant", Parts: []core.Part{core.FunctionCallPart{
				FunctionCall: core.FunctionCall{ID: "toolu_1", Name: "web_search", Arguments: `{"query":"lake towns"}`},
			}}},
			{Role: "tool", Parts: []core.Part{core.FunctionResponsePart{
				FunctionResponse: core.FunctionResponse{ID: "toolu_1", Name: "web_search", Response: "Lake Placid"},
			}}},
		},
	})

	assert.True(t, forced)
	require.NotNil(t, params.ToolChoice.OfTool)
	assert.Equal(t, "brief_output", params.ToolChoice.OfTool.Name)
}

func decodeMessage(t *testing.T, raw string) *anthropic.Message {
	t.Helper()
	var msg anthropic.Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	return &msg
}

func TestResponseParts_ToolCallPassesThrough(t *testing.T) {
	msg := decodeMessage(t, `{
		"content":[{"type":"tool_use","id":"toolu_1","name":"web_search","input":{"query":"lake towns"}}],
		"stop_reason":"tool_use"
	}`)

	parts, usedSchema := responseParts(msg, "brief_output")
	assert.False(t, usedSchema)
	require.Len(t, parts, 1)
	call, ok := parts[0].(core.FunctionCallPart)
	require.True(t, ok)
	assert.Equal(t, "web_search", call.FunctionCall.Name)
	assert.JSONEq(t, `{"query":"lake towns"}`, call.FunctionCall.Arguments)
}

func TestResponseParts_SchemaCallBecomesText(t *testing.T) {
	msg := decodeMessage(t, `{
		"content":[{"type":"tool_use","id":"toolu_2","name":"brief_output","input":{"topic":"lake towns"}}],
		"stop_reason":"tool_use"
	}`)

	parts, usedSchema := responseParts(msg, "brief_output")
	assert.True(t, usedSchema)
	require.Len(t, parts, 1)
	text, ok := parts[0].(core.TextPart)
	require.True(t, ok)
	assert.JSONEq(t, `{"topic":"lake towns"}`, text.Text)
}
