package thumbnail

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrWorkerClosed is returned by Run after Close.
var ErrWorkerClosed = errors.New("thumbnail worker closed")

type job struct {
	specs      []Spec
	onProgress ProgressFunc
	done       chan Results
}

// Worker runs EnsureAll on a dedicated OS thread so image decoding never
// competes with goroutines doing network I/O on the same thread.
type Worker struct {
	jobs      chan job
	closeOnce sync.Once
	quit      chan struct{}
	stopped   chan struct{}
}

// NewWorker starts the worker goroutine.
func NewWorker() *Worker {
	w := &Worker{
		jobs:    make(chan job),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.stopped)

	for {
		select {
		case <-w.quit:
			return
		case j := <-w.jobs:
			j.done <- EnsureAll(j.specs, j.onProgress)
		}
	}
}

// Run submits specs and waits for the batch to finish. Generation is not
// interruptible: if ctx is cancelled while a batch runs, Run returns
// ctx.Err() but the batch completes in the background.
func (w *Worker) Run(ctx context.Context, specs []Spec, onProgress ProgressFunc) (Results, error) {
	j := job{specs: specs, onProgress: onProgress, done: make(chan Results, 1)}

	select {
	case <-w.quit:
		return Results{}, ErrWorkerClosed
	case <-ctx.Done():
		return Results{}, ctx.Err()
	case w.jobs <- j:
	}

	select {
	case res := <-j.done:
		return res, nil
	case <-ctx.Done():
		return Results{}, ctx.Err()
	}
}

// Close stops the worker after any in-flight batch.
func (w *Worker) Close() error {
	w.closeOnce.Do(func() { close(w.quit) })
	<-w.stopped
	return nil
}
