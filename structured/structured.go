// Package structured turns model output into typed Go values. Generate asks
// the model for JSON conforming to the schema derived from T, strips any
// code fences the model wraps around it, and unmarshals into T with retries
// on malformed output.
package structured

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/planweave/planweave/core"
	"github.com/planweave/planweave/internal/retry"
	"github.com/planweave/planweave/internal/schema"
	"github.com/planweave/planweave/model"
)

// Options configure structured generation.
type Options struct {
	// Name identifies the schema to the provider. Defaults to "output".
	Name string

	// Description is passed to providers that accept one.
	Description string

	// Instructions is the system prompt for the call.
	Instructions string

	// Retry controls retries on malformed output or transient model
	// errors. Defaults to retry.Default.
	Retry retry.Config
}

// Generate prompts the model and decodes the response into T. The schema is
// derived from T's fields via reflection; json tags name the properties.
func Generate[T any](ctx context.Context, m model.Model, prompt string, optFns ...func(o *Options)) (T, error) {
	opts := Options{
		Name:  "output",
		Retry: retry.Default,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var zero T
	req := model.Request{
		Instructions: opts.Instructions,
		Contents:     []core.Content{core.NewUserText(prompt)},
		ResponseFormat: &model.ResponseFormat{
			Name:        opts.Name,
			Description: opts.Description,
			Schema:      schema.Of(zero),
		},
	}

	return retry.Do(ctx, opts.Retry, func(ctx context.Context) (T, error) {
		resp, err := model.Final(m.Generate(ctx, req))
		if err != nil {
			return zero, err
		}
		return Decode[T](resp.Content.Text())
	})
}

// Decode unmarshals model output text into T, tolerating markdown code
// fences and leading prose around the JSON payload.
func Decode[T any](text string) (T, error) {
	var out T
	payload := extractJSON(text)
	if payload == "" {
		return out, fmt.Errorf("no JSON found in model output")
	}
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return out, fmt.Errorf("decode structured output: %w", err)
	}
	return out, nil
}

// extractJSON returns the JSON document embedded in text. Handles raw JSON,
// fenced blocks (```json ... ```), and JSON preceded or followed by prose.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if strings.Contains(text, "```") {
		if fenced := insideFence(text); fenced != "" {
			text = fenced
		}
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if text[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end <= start {
		return ""
	}
	return text[start : end+1]
}

func insideFence(text string) string {
	first := strings.Index(text, "```")
	rest := text[first+3:]
	// Skip the language tag on the opening fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	closing := strings.Index(rest, "```")
	if closing < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:closing])
}
