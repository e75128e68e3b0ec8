package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planweave/planweave/core"
)

func TestMockModel_SubstringMatch(t *testing.T) {
	m := NewMockModel().
		AddResponse("personas", `{"personas":[]}`).
		AddResponse("keywords", `{"keywords":["ai bartender"]}`)

	resp, err := Final(m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserText("Generate 3 user personas for this app.")},
	}))
	require.NoError(t, err)
	assert.Equal(t, `{"personas":[]}`, resp.Content.Text())
	assert.Equal(t, "stop", resp.FinishReason)

	resp, err = Final(m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserText("Extract SEO keywords from the site.")},
	}))
	require.NoError(t, err)
	assert.Equal(t, `{"keywords":["ai bartender"]}`, resp.Content.Text())

	assert.Equal(t, 2, m.CallCount())
}

func TestMockModel_Fallback(t *testing.T) {
	m := NewMockModel().SetFallback("done")

	resp, err := Final(m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserText("anything")},
	}))
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Content.Text())
}

func TestMockModel_QueuedToolCalls(t *testing.T) {
	m := NewMockModel().
		QueueToolCall("web_search", `{"query":"best lake towns ontario"}`).
		AddResponse("", "final answer")

	resp, err := Final(m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserText("find lake towns")},
	}))
	require.NoError(t, err)
	assert.Equal(t, "tool_calls", resp.FinishReason)

	calls := resp.Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "web_search", calls[0].Name)
	assert.NotEmpty(t, calls[0].ID)

	// Queue drained; next call falls through to canned text.
	resp, err = Final(m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserText("find lake towns")},
	}))
	require.NoError(t, err)
	assert.Equal(t, "final answer", resp.Content.Text())
}

func TestMockModel_Streaming(t *testing.T) {
	m := NewMockModel().AddResponse("hi", "hello there")

	respCh, errCh := m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserText("hi")},
		Stream:   true,
	})

	var partials int
	var final Response
	for resp := range respCh {
		if resp.Partial {
			partials++
		} else {
			final = resp
		}
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, 2, partials)
	assert.Equal(t, "hello there", final.Content.Text())
}

func TestFinal_NoResponse(t *testing.T) {
	respCh := make(chan Response)
	errCh := make(chan error, 1)
	close(respCh)
	close(errCh)

	_, err := Final(respCh, errCh)
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestMockModel_RecordsRequests(t *testing.T) {
	m := NewMockModel()
	_, _ = Final(m.Generate(context.Background(), Request{
		Instructions: "You are a helpful assistant.",
		Contents:     []core.Content{core.NewUserText("hello")},
		ResponseFormat: &ResponseFormat{
			Name:   "site_info",
			Schema: map[string]any{"type": "object"},
		},
	}))

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "You are a helpful assistant.", reqs[0].Instructions)
	require.NotNil(t, reqs[0].ResponseFormat)
	assert.Equal(t, "site_info", reqs[0].ResponseFormat.Name)
}
