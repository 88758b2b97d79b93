package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrRunnerClosed is returned by Start after Close
var ErrRunnerClosed = errors.New("runner closed")

// Job is a unit of background work. It must return promptly once ctx is done.
type Job func(ctx context.Context)

// Runner runs at most one Job at a time. Starting a job cancels the previous
// one and waits for it to return first, so two jobs never touch the video at
// once.
type Runner struct {
	parent context.Context

	startMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// NewRunner creates a Runner whose jobs derive their context from parent.
func NewRunner(parent context.Context) *Runner {
	if parent == nil {
		parent = context.Background()
	}
	return &Runner{parent: parent}
}

// Start cancels any running job, waits for it, then runs job in a new goroutine.
func (r *Runner) Start(job Job) error {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	r.Cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRunnerClosed
	}
	ctx, cancel := context.WithCancel(r.parent)
	done := make(chan struct{})
	r.cancel, r.done = cancel, done

	go func() {
		defer close(done)
		defer cancel()
		job(ctx)
	}()
	return nil
}

// Cancel stops the running job, if any, and waits for it to return.
func (r *Runner) Cancel() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the running job, if any, returns.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Running reports whether a job is in flight.
func (r *Runner) Running() bool {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Close cancels the running job and rejects further starts.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.Cancel()
}
