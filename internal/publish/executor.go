package publish

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// InvalidationTimeout bounds the CDN invalidation request.
const InvalidationTimeout = 30 * time.Second

// State is a step of plan execution.
type State int

const (
	StateUploading State = iota
	StateDeleting
	StateInvalidating
	StateComplete
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateUploading:
		return "uploading"
	case StateDeleting:
		return "deleting"
	case StateInvalidating:
		return "invalidating"
	case StateComplete:
		return "complete"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the outcome of executing a plan.
type Result struct {
	State     State
	Uploaded  int
	Deleted   int
	Unchanged int
}

// Executor applies plans: uploads, then deletes, then CDN invalidation.
// Cancellation is polled before each transfer and never interrupts one.
type Executor struct {
	store          ObjectStore
	cdn            Invalidator
	distributionID string
	plans          *PlanStore
	fsmgr          FilesystemManager
	emitter        Emitter
	logger         Logger
	idgen          IDGenerator
	timeout        time.Duration
}

// NewExecutor creates an Executor. cdn may be nil, in which case the
// invalidation step is skipped, as it is when distributionID is empty.
func NewExecutor(store ObjectStore, cdn Invalidator, distributionID string, plans *PlanStore, fsmgr FilesystemManager, emitter Emitter, logger Logger, idgen IDGenerator) *Executor {
	return &Executor{
		store:          store,
		cdn:            cdn,
		distributionID: distributionID,
		plans:          plans,
		fsmgr:          fsmgr,
		emitter:        emitter,
		logger:         logger,
		idgen:          idgen,
		timeout:        InvalidationTimeout,
	}
}

// Run executes plan. A cancelled run returns a Result in StateCancelled and
// a nil error, leaving the plan in the store. A completed run removes it.
// Any transfer or invalidation failure aborts immediately.
func (e *Executor) Run(ctx context.Context, plan *Plan) (*Result, error) {
	res := &Result{State: StateUploading, Unchanged: plan.Unchanged}
	deletes := make([]string, 0, len(plan.ToDelete))
	for _, key := range plan.ToDelete {
		if !IsManaged(plan.RemoteRoot, key) {
			e.logger.Warn("refusing to delete unmanaged key", "key", key)
			continue
		}
		deletes = append(deletes, key)
	}
	total := len(plan.ToUpload) + len(deletes)
	current := 0

	e.logger.Info("uploading", "plan", plan.ID, "files", len(plan.ToUpload))
	for _, f := range plan.ToUpload {
		if e.plans.IsCancelled(plan.ID) {
			return e.cancel(plan, res), nil
		}

		current++
		e.emitter.Emit(ProgressEvent{Current: current, Total: total, File: f.RemoteKey, Action: ActionUpload})

		if err := e.upload(ctx, f); err != nil {
			e.emitter.Emit(ErrorEvent{Error: err.Error(), File: f.RemoteKey})
			return res, err
		}
		res.Uploaded++
		e.logger.Debug("uploaded", "key", f.RemoteKey, "size", f.SizeBytes)
	}

	res.State = StateDeleting
	e.logger.Info("deleting", "plan", plan.ID, "keys", len(deletes))
	for _, key := range deletes {
		if e.plans.IsCancelled(plan.ID) {
			return e.cancel(plan, res), nil
		}

		current++
		e.emitter.Emit(ProgressEvent{Current: current, Total: total, File: key, Action: ActionDelete})

		if err := e.store.Delete(ctx, key); err != nil {
			rerr := &RemoteError{Op: "delete", Key: key, Err: err}
			e.emitter.Emit(ErrorEvent{Error: rerr.Error(), File: key})
			return res, rerr
		}
		res.Deleted++
		e.logger.Debug("deleted", "key", key)
	}

	if e.cdn != nil && e.distributionID != "" {
		res.State = StateInvalidating
		e.emitter.Emit(ProgressEvent{Current: total, Total: total, File: "", Action: ActionInvalidate})
		if err := e.invalidate(ctx, plan.RemoteRoot); err != nil {
			e.emitter.Emit(ErrorEvent{Error: err.Error(), File: ""})
			return res, err
		}
	}

	res.State = StateComplete
	e.emitter.Emit(CompleteEvent{Uploaded: res.Uploaded, Deleted: res.Deleted, Unchanged: res.Unchanged})
	if err := e.plans.Remove(plan.ID); err != nil {
		e.logger.Warn("releasing plan failed", "plan", plan.ID, "error", err)
	}
	e.logger.Info("publish complete", "plan", plan.ID, "uploaded", res.Uploaded, "deleted", res.Deleted, "unchanged", res.Unchanged)
	return res, nil
}

func (e *Executor) cancel(plan *Plan, res *Result) *Result {
	res.State = StateCancelled
	e.emitter.Emit(CompleteEvent{Uploaded: res.Uploaded, Deleted: res.Deleted, Unchanged: res.Unchanged, Cancelled: true})
	e.logger.Info("publish cancelled", "plan", plan.ID, "uploaded", res.Uploaded, "deleted", res.Deleted)
	return res
}

func (e *Executor) upload(ctx context.Context, f SyncFile) error {
	p, err := e.fsmgr.Resolve(f.LocalPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.LocalPath, err)
	}
	r, err := e.fsmgr.Open(p)
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.LocalPath, err)
	}
	defer r.Close()

	if err := e.store.Put(ctx, f.RemoteKey, f.ContentType, r, p.Size()); err != nil {
		return &RemoteError{Op: "put", Key: f.RemoteKey, Err: err}
	}
	return nil
}

func (e *Executor) invalidate(ctx context.Context, root string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	path := "/" + root + "*"
	err := e.cdn.Invalidate(ctx, e.distributionID, path, e.idgen.New())
	switch {
	case err == nil:
		e.logger.Info("cdn invalidation created", "path", path)
		return nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w after %s", ErrInvalidationTimeout, e.timeout)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidationRejected, err)
	}
}
