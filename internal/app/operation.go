package app

import (
	"afterglow/internal/history"
	"afterglow/internal/publish"
)

// PublishOperation tracks one plan execution for the history log.
// Operations are created in memory with ID=0 and receive an id once
// persisted.
type PublishOperation struct {
	ID     int64
	PlanID string
	Status history.Status
	Result publish.Result
	Err    error
}

// NewPublishOperation creates a running operation for planID.
func NewPublishOperation(planID string) *PublishOperation {
	return &PublishOperation{
		PlanID: planID,
		Status: history.StatusRunning,
	}
}

// Persisted returns true if this operation has been saved to the history log.
func (op *PublishOperation) Persisted() bool {
	return op.ID != 0
}

// Complete records how the execution ended. A cancelled result wins over
// a nil error; any error marks the operation failed.
func (op *PublishOperation) Complete(res *publish.Result, err error) {
	if res != nil {
		op.Result = *res
	}
	op.Err = err

	switch {
	case err != nil:
		op.Status = history.StatusError
	case res != nil && res.State == publish.StateCancelled:
		op.Status = history.StatusCancelled
	default:
		op.Status = history.StatusSuccess
	}
}

// Outcome is what the history log stores for op.
func (op *PublishOperation) Outcome() history.Outcome {
	return history.Outcome{
		Status:    op.Status,
		Uploaded:  op.Result.Uploaded,
		Deleted:   op.Result.Deleted,
		Unchanged: op.Result.Unchanged,
		Err:       op.Err,
	}
}
