// Package crew implements role-playing agents that work through an ordered
// list of tasks. Each task is executed as a conversation with the agent's
// model: a persona system prompt, the task description enriched with
// context task outputs, a bounded function-calling loop over the agent's
// tools, and optionally a schema-constrained final answer.
package crew

import (
	"fmt"
	"strings"

	"github.com/planweave/planweave/model"
	"github.com/planweave/planweave/tool"
)

const defaultMaxToolIterations = 5

// Agent is a persona that executes tasks.
type Agent struct {
	// Role is the agent's job title, e.g. "Senior Real Estate Agent".
	Role string

	// Goal states what the agent optimizes for.
	Goal string

	// Backstory gives the model grounding for the persona.
	Backstory string

	// Model drives the agent. Required.
	Model model.Model

	// Tools the agent may call. Tasks can override this set.
	Tools []tool.Tool

	// MaxToolIterations bounds the function-calling loop per task.
	// Defaults to 5.
	MaxToolIterations int
}

func (a *Agent) validate() error {
	if a.Role == "" {
		return fmt.Errorf("crew: agent role is required")
	}
	if a.Model == nil {
		return fmt.Errorf("crew: agent %q has no model", a.Role)
	}
	return nil
}

func (a *Agent) maxToolIterations() int {
	if a.MaxToolIterations > 0 {
		return a.MaxToolIterations
	}
	return defaultMaxToolIterations
}

// systemPrompt renders the persona instructions for a task conversation.
func (a *Agent) systemPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s.", a.Role)
	if a.Goal != "" {
		fmt.Fprintf(&sb, "\nYour goal: %s", a.Goal)
	}
	if a.Backstory != "" {
		fmt.Fprintf(&sb, "\nBackground: %s", a.Backstory)
	}
	return sb.String()
}
