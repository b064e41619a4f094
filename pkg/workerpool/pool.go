// Package workerpool runs submitted jobs on a fixed number of goroutines.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrClosed indicates that the pool no longer accepts jobs.
var ErrClosed = errors.New("worker pool is closed")

// Job is a unit of work executed by a worker.
type Job func(ctx context.Context) error

type task struct {
	ctx  context.Context
	job  Job
	done chan error
}

// Pool is a bounded pool of workers with request/response submission.
type Pool struct {
	tasks chan task
	group errgroup.Group

	mu     sync.RWMutex
	closed bool
}

// New starts a pool of size workers.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}

	p := &Pool{tasks: make(chan task)}

	for i := 0; i < size; i++ {
		p.group.Go(p.work)
	}

	return p
}

func (p *Pool) work() error {
	for t := range p.tasks {
		t.done <- run(t.ctx, t.job)
	}

	return nil
}

func run(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	return job(ctx)
}

// Submit hands job to a free worker and blocks until it has finished.
//
// The job's own error is returned. If ctx is done before a worker picks the
// job up, the job never runs and ctx.Err() is returned.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}

	t := task{ctx: ctx, job: job, done: make(chan error, 1)}

	select {
	case p.tasks <- t:
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}
	p.mu.RUnlock()

	return <-t.done
}

// Close stops accepting jobs and waits for in-flight jobs to drain.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	return p.group.Wait()
}
