package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind categorizes run events recorded by workflows.
type EventKind string

const (
	// EventStatus is a free-form progress update.
	EventStatus EventKind = "status"
	// EventNodeComplete marks a graph node finishing successfully.
	EventNodeComplete EventKind = "node_complete"
	// EventTaskOutput carries the output of a completed crew task.
	EventTaskOutput EventKind = "task_output"
	// EventError records a non-fatal failure the workflow recovered from.
	EventError EventKind = "error"
)

// Event is the unit of run history. Workflows emit events as they
// progress; stores persist them so callers can inspect or stream a run.
// After emission an event is treated as immutable.
type Event struct {
	ID        string         `json:"id"`
	RunID     string         `json:"run_id"`
	Author    string         `json:"author"` // node, task or agent name
	Kind      EventKind      `json:"kind"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewID generates a unique identifier for events and runs.
func NewID() string { return uuid.NewString() }

// NewEvent creates an event authored by author within a run.
func NewEvent(runID, author string, kind EventKind) Event {
	return Event{
		ID:        NewID(),
		RunID:     runID,
		Author:    author,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// NewStatusEvent creates a progress update event.
func NewStatusEvent(runID, author, message string) Event {
	e := NewEvent(runID, author, EventStatus)
	e.Message = message
	return e
}

// NewTaskOutputEvent records the output of a completed task.
func NewTaskOutputEvent(runID, task, output string) Event {
	e := NewEvent(runID, task, EventTaskOutput)
	e.Data = map[string]any{"output": output}
	return e
}

// NewErrorEvent records a recovered failure.
func NewErrorEvent(runID, author string, err error) Event {
	e := NewEvent(runID, author, EventError)
	if err != nil {
		e.Message = err.Error()
	}
	return e
}
