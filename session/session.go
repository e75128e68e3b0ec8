// Package session records the event history of workflow runs. Workflows
// emit core.Event values while they execute; a session store persists them
// per run so callers can replay what happened, stream progress to a UI, or
// debug a failed run after the fact.
//
// Additional backends (Redis, Postgres, etc.) can live in sub-packages
// without changing any calling code.
package session

import (
	"context"
	"errors"

	"github.com/planweave/planweave/core"
)

// ErrRunNotFound is returned when a run has no recorded events.
var ErrRunNotFound = errors.New("session: run not found")

// Store persists run event histories. Implementations must be safe for
// concurrent use: graph branches append events from multiple goroutines.
type Store interface {
	// Append records an event under its run ID.
	Append(ctx context.Context, ev core.Event) error

	// Events returns the recorded events of a run in append order.
	// Returns ErrRunNotFound if no events exist for runID.
	Events(ctx context.Context, runID string) ([]core.Event, error)

	// Runs lists the run IDs with at least one recorded event.
	Runs(ctx context.Context) ([]string, error)

	// DeleteRun removes all events of a run. Deleting an unknown run is
	// not an error.
	DeleteRun(ctx context.Context, runID string) error
}
