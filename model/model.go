// Package model defines the provider-neutral interface planweave workflows
// use to drive language models, plus shared request/response types. Concrete
// adapters live in the openai and anthropic subpackages; MockModel supports
// tests and examples without network access.
package model

import (
	"context"
	"errors"

	"github.com/planweave/planweave/core"
)

// ErrNoResponse indicates a model call finished without emitting a final
// response.
var ErrNoResponse = errors.New("model returned no final response")

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ResponseFormat requests structured output conforming to a JSON schema.
// Providers that support native schema-constrained decoding use it directly;
// others emulate it (the Anthropic adapter exposes the schema as a tool).
type ResponseFormat struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Schema      map[string]any `json:"schema"`
}

// Request captures the normalized model input produced by workflows.
type Request struct {
	Instructions   string           `json:"instructions"`
	Contents       []core.Content   `json:"contents"`
	Tools          []ToolDefinition `json:"tools,omitempty"`
	ResponseFormat *ResponseFormat  `json:"response_format,omitempty"`
	Stream         bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface workflows need to drive generation. Generate
// returns a response channel and an error channel; both are closed when the
// call completes. Final responses carry Partial=false.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Final drains the response channel and returns the last non-partial
// response. It is the common consumption pattern for callers that do not
// surface streaming deltas.
func Final(respCh <-chan Response, errCh <-chan error) (Response, error) {
	var final Response
	var got bool
	for resp := range respCh {
		if !resp.Partial {
			final = resp
			got = true
		}
	}
	if err := <-errCh; err != nil {
		return Response{}, err
	}
	if !got {
		return Response{}, ErrNoResponse
	}
	return final, nil
}
