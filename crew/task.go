package crew

import (
	"fmt"
	"strings"

	"github.com/planweave/planweave/internal/prompt"
	"github.com/planweave/planweave/tool"
)

// Task is one unit of work assigned to an agent.
type Task struct {
	// Name identifies the task in events and logs (snake_case).
	Name string

	// Description tells the agent what to do. May contain Go template
	// expressions resolved against the Kickoff inputs, e.g.
	// "Find up to {{.city_limit}} cities near {{.home}}".
	Description string

	// ExpectedOutput describes the shape of a good answer.
	ExpectedOutput string

	// Agent executes the task. Required.
	Agent *Agent

	// OutputSchema, when set, is a struct prototype whose reflected JSON
	// schema constrains the final answer.
	OutputSchema any

	// Context lists tasks whose outputs are prepended to this task's
	// prompt. Context tasks must appear earlier in the crew's task list.
	Context []*Task

	// Tools override the agent's tools for this task.
	Tools []tool.Tool

	// Callback runs after the task completes.
	Callback func(TaskOutput)

	output *TaskOutput
}

// TaskOutput is the result of a completed task.
type TaskOutput struct {
	Task  string `json:"task"`
	Agent string `json:"agent"`
	Raw   string `json:"raw"`
}

// Output returns the task's result, or nil if it has not run.
func (t *Task) Output() *TaskOutput { return t.output }

func (t *Task) validate() error {
	if t.Name == "" {
		return fmt.Errorf("crew: task name is required")
	}
	if t.Description == "" {
		return fmt.Errorf("crew: task %q has no description", t.Name)
	}
	if t.Agent == nil {
		return fmt.Errorf("crew: task %q has no agent", t.Name)
	}
	return t.Agent.validate()
}

// tools resolves the effective tool set for the task.
func (t *Task) tools() []tool.Tool {
	if len(t.Tools) > 0 {
		return t.Tools
	}
	return t.Agent.Tools
}

// userPrompt renders the task prompt: context task outputs first, then the
// templated description, then the expected output contract.
func (t *Task) userPrompt(inputs map[string]any) (string, error) {
	description, err := prompt.Render(t.Description, inputs)
	if err != nil {
		return "", fmt.Errorf("render task %q description: %w", t.Name, err)
	}

	var sb strings.Builder
	if len(t.Context) > 0 {
		sb.WriteString("Context from earlier work:\n")
		for _, dep := range t.Context {
			if dep.output == nil {
				return "", fmt.Errorf("crew: task %q depends on %q which has not run", t.Name, dep.Name)
			}
			fmt.Fprintf(&sb, "\n--- %s ---\n%s\n", dep.Name, dep.output.Raw)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(description)
	if t.ExpectedOutput != "" {
		fmt.Fprintf(&sb, "\n\nExpected output: %s", t.ExpectedOutput)
	}
	return sb.String(), nil
}
