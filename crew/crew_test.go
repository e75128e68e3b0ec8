package crew

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planweave/planweave/core"
	"github.com/planweave/planweave/model"
	"github.com/planweave/planweave/tool"
)

func newAgent(m model.Model, tools ...tool.Tool) *Agent {
	return &Agent{
		Role:      "Test Researcher",
		Goal:      "Answer questions precisely",
		Backstory: "Years of lab work.",
		Model:     m,
		Tools:     tools,
	}
}

func TestNew_Validation(t *testing.T) {
	m := model.NewMockModel()

	_, err := New("", []*Task{{Name: "a", Description: "d", Agent: newAgent(m)}})
	assert.Error(t, err)

	_, err = New("c", nil)
	assert.Error(t, err)

	_, err = New("c", []*Task{{Name: "", Description: "d", Agent: newAgent(m)}})
	assert.Error(t, err)

	_, err = New("c", []*Task{{Name: "a", Description: "d", Agent: &Agent{Role: "r"}}})
	assert.Error(t, err)

	// Context task that runs after its dependent is rejected.
	later := &Task{Name: "later", Description: "d", Agent: newAgent(m)}
	first := &Task{Name: "first", Description: "d", Agent: newAgent(m), Context: []*Task{later}}
	_, err = New("c", []*Task{first, later})
	assert.Error(t, err)
}

func TestKickoff_Sequential(t *testing.T) {
	m := model.NewMockModel().
		AddResponse("candidate cities", "Smithville and Laketon").
		AddResponse("summarize", "Final summary")

	cities := &Task{
		Name:        "find_candidate_cities",
		Description: "List candidate cities for a lake house.",
		Agent:       newAgent(m),
	}
	summary := &Task{
		Name:        "summarize",
		Description: "summarize the research",
		Agent:       newAgent(m),
		Context:     []*Task{cities},
	}

	c, err := New("vacation", []*Task{cities, summary})
	require.NoError(t, err)

	out, err := c.Kickoff(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, out.Tasks, 2)
	assert.Equal(t, "Smithville and Laketon", out.Tasks[0].Raw)
	assert.Equal(t, "Final summary", out.Raw)
	assert.NotEmpty(t, out.RunID)

	// The summarize prompt carried the context task's output.
	reqs := m.Requests()
	require.Len(t, reqs, 2)
	secondPrompt := reqs[1].Contents[0].Text()
	assert.Contains(t, secondPrompt, "find_candidate_cities")
	assert.Contains(t, secondPrompt, "Smithville and Laketon")
}

func TestKickoff_TemplatedInputs(t *testing.T) {
	m := model.NewMockModel().SetFallback("ok")

	task := &Task{
		Name:           "find_candidate_cities",
		Description:    "Find up to {{.city_limit}} cities near {{.home}}.",
		ExpectedOutput: "A JSON list of cities",
		Agent:          newAgent(m),
	}
	c, err := New("vacation", []*Task{task})
	require.NoError(t, err)

	_, err = c.Kickoff(context.Background(), map[string]any{
		"city_limit": 5,
		"home":       "Richmond, VA",
	})
	require.NoError(t, err)

	prompt := m.Requests()[0].Contents[0].Text()
	assert.Contains(t, prompt, "Find up to 5 cities near Richmond, VA.")
	assert.Contains(t, prompt, "Expected output: A JSON list of cities")
}

func TestKickoff_SystemPromptFromPersona(t *testing.T) {
	m := model.NewMockModel().SetFallback("ok")
	task := &Task{Name: "t", Description: "do it", Agent: newAgent(m)}
	c, err := New("crew", []*Task{task})
	require.NoError(t, err)

	_, err = c.Kickoff(context.Background(), nil)
	require.NoError(t, err)

	instructions := m.Requests()[0].Instructions
	assert.Contains(t, instructions, "You are Test Researcher.")
	assert.Contains(t, instructions, "Answer questions precisely")
	assert.Contains(t, instructions, "Years of lab work.")
}

func TestKickoff_ToolLoop(t *testing.T) {
	var calledWith map[string]any
	search := tool.NewFunctionTool("web_search", "Search the web",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
			},
			"required": []string{"query"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			calledWith = args
			return "search results about lake towns", nil
		})

	m := model.NewMockModel().
		QueueToolCall("web_search", `{"query":"lake towns"}`).
		SetFallback("Laketon is the best town")

	task := &Task{Name: "research", Description: "find lake towns", Agent: newAgent(m, search)}
	c, err := New("crew", []*Task{task})
	require.NoError(t, err)

	out, err := c.Kickoff(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Laketon is the best town", out.Raw)
	assert.Equal(t, map[string]any{"query": "lake towns"}, calledWith)

	// Second model call saw the assistant tool call and the tool response.
	reqs := m.Requests()
	require.Len(t, reqs, 2)
	require.Len(t, reqs[1].Contents, 3)
	assert.Equal(t, "assistant", reqs[1].Contents[1].Role)
	assert.Equal(t, "tool", reqs[1].Contents[2].Role)

	// Tool definitions were exposed to the model.
	require.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, "web_search", reqs[0].Tools[0].Function.Name)
}

func TestKickoff_UnknownToolReportedToModel(t *testing.T) {
	m := model.NewMockModel().
		QueueToolCall("no_such_tool", `{}`).
		SetFallback("recovered")

	task := &Task{Name: "t", Description: "d", Agent: newAgent(m)}
	c, err := New("crew", []*Task{task})
	require.NoError(t, err)

	out, err := c.Kickoff(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", out.Raw)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	toolContent := reqs[1].Contents[2]
	fr, ok := toolContent.Parts[0].(core.FunctionResponsePart)
	require.True(t, ok)
	assert.Contains(t, fr.FunctionResponse.Error, "unknown tool")
}

func TestKickoff_ToolBudgetExhausted(t *testing.T) {
	echo := tool.NewFunctionTool("echo", "Echo", map[string]any{"type": "object"},
		func(_ context.Context, args map[string]any) (any, error) { return "hi", nil })

	m := model.NewMockModel()
	for i := 0; i < 10; i++ {
		m.QueueToolCall("echo", `{}`)
	}

	task := &Task{
		Name:        "t",
		Description: "d",
		Agent: &Agent{
			Role:              "Looper",
			Model:             m,
			Tools:             []tool.Tool{echo},
			MaxToolIterations: 2,
		},
	}
	c, err := New("crew", []*Task{task})
	require.NoError(t, err)

	_, err = c.Kickoff(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "budget")
}

func TestKickoff_StructuredOutput(t *testing.T) {
	type cityList struct {
		Cities []string `json:"cities"`
	}

	m := model.NewMockModel().SetFallback(`{"cities":["Laketon"]}`)
	task := &Task{
		Name:         "find_candidate_cities",
		Description:  "find cities",
		Agent:        newAgent(m),
		OutputSchema: cityList{},
	}
	c, err := New("crew", []*Task{task})
	require.NoError(t, err)

	out, err := c.Kickoff(context.Background(), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cities":["Laketon"]}`, out.Raw)

	rf := m.Requests()[0].ResponseFormat
	require.NotNil(t, rf)
	assert.Equal(t, "find_candidate_cities_output", rf.Name)
	assert.Equal(t, "object", rf.Schema["type"])
}

func TestKickoff_CallbacksAndEvents(t *testing.T) {
	m := model.NewMockModel().SetFallback("done")

	var callbackOut TaskOutput
	task := &Task{
		Name:        "t",
		Description: "d",
		Agent:       newAgent(m),
		Callback:    func(out TaskOutput) { callbackOut = out },
	}

	var events []core.Event
	c, err := New("crew", []*Task{task}, func(o *Options) {
		o.Emit = func(ev core.Event) { events = append(events, ev) }
		o.RunID = "run-42"
	})
	require.NoError(t, err)

	out, err := c.Kickoff(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "run-42", out.RunID)

	assert.Equal(t, "done", callbackOut.Raw)
	assert.Equal(t, "t", callbackOut.Task)

	require.Len(t, events, 1)
	assert.Equal(t, core.EventTaskOutput, events[0].Kind)
	assert.Equal(t, out.RunID, events[0].RunID)
	assert.Equal(t, "done", events[0].Data["output"])
}

func TestTaskOutput_AccessibleAfterRun(t *testing.T) {
	m := model.NewMockModel().SetFallback("answer")
	task := &Task{Name: "t", Description: "d", Agent: newAgent(m)}
	c, err := New("crew", []*Task{task})
	require.NoError(t, err)

	assert.Nil(t, task.Output())
	_, err = c.Kickoff(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, task.Output())
	assert.Equal(t, "answer", task.Output().Raw)
}
