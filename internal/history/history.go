// Package history keeps a persistent log of publish executions.
package history

import (
	"time"
)

// Status is the outcome of a publish execution.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSuccess   Status = "success"
	StatusCancelled Status = "cancelled"
	StatusError     Status = "error"
)

// Operation is one recorded publish execution. FinishedAt is zero while the
// execution is running, or when the process died before finishing it.
type Operation struct {
	ID         int64
	PlanID     string
	RemoteRoot string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     Status
	Uploaded   int
	Deleted    int
	Unchanged  int
	Error      string
}

// Outcome is what Finish records about an execution.
type Outcome struct {
	Status    Status
	Uploaded  int
	Deleted   int
	Unchanged int
	Err       error
}

// Log records publish executions.
type Log interface {
	// Start records a new running execution and returns its id.
	Start(planID, remoteRoot string, at time.Time) (int64, error)

	// Finish records the outcome of the execution started with id.
	Finish(id int64, at time.Time, out Outcome) error

	// List returns up to limit executions, newest first.
	List(limit int) ([]Operation, error)

	Close() error
}
