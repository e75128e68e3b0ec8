package model

import (
	"context"
	"strings"
	"sync"

	"github.com/planweave/planweave/core"
)

// MockModel is an in-memory Model for tests and examples. Responses are
// matched by substring against the latest user text, so a single mock can
// serve every step of a multi-node workflow. Scripted tool calls are
// consumed in registration order, letting tests drive function-calling
// loops deterministically.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	canned    []cannedResponse
	toolCalls []core.FunctionCall
	requests  []Request
	fallback  string
}

type cannedResponse struct {
	match string
	text  string
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel() *MockModel {
	return &MockModel{
		info: Info{Name: "mock", Provider: "mock", SupportsTools: true},
	}
}

// AddResponse registers a canned completion returned when the latest user
// text contains match. Earlier registrations win on ties.
func (m *MockModel) AddResponse(match, text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.canned = append(m.canned, cannedResponse{match: match, text: text})
	return m
}

// SetFallback sets the text returned when no canned response matches.
func (m *MockModel) SetFallback(text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = text
	return m
}

// QueueToolCall schedules a function call to be emitted by the next Generate
// call, ahead of any canned text response. Queued calls are consumed in
// order, one per Generate.
func (m *MockModel) QueueToolCall(name, arguments string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolCalls = append(m.toolCalls, core.FunctionCall{
		ID:        core.NewID(),
		Name:      name,
		Arguments: arguments,
	})
	return m
}

// Requests returns a copy of every Request seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount reports how many times Generate has been invoked.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)

	var pendingCall *core.FunctionCall
	if len(m.toolCalls) > 0 {
		call := m.toolCalls[0]
		m.toolCalls = m.toolCalls[1:]
		pendingCall = &call
	}
	text := m.lookupLocked(req)
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if ctx.Err() != nil {
			errCh <- ctx.Err()
			return
		}

		if pendingCall != nil {
			respCh <- Response{
				Content: core.Content{
					Role:  "assistant",
					Parts: []core.Part{core.FunctionCallPart{FunctionCall: *pendingCall}},
				},
				FinishReason: "tool_calls",
			}
			return
		}

		if req.Stream {
			for _, word := range strings.Fields(text) {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.NewAssistantText(word + " "),
				}:
				}
			}
		}
		respCh <- Response{
			Content:      core.NewAssistantText(text),
			FinishReason: "stop",
			Usage:        &TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
		}
	}()
	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

func (m *MockModel) lookupLocked(req Request) string {
	input := latestUserText(req)
	for _, c := range m.canned {
		if strings.Contains(input, c.match) {
			return c.text
		}
	}
	if m.fallback != "" {
		return m.fallback
	}
	return "Mock response to: " + input
}

func latestUserText(req Request) string {
	for i := len(req.Contents) - 1; i >= 0; i-- {
		c := req.Contents[i]
		if c.Role != "user" {
			continue
		}
		if text := c.Text(); text != "" {
			return text
		}
	}
	return req.Instructions
}
