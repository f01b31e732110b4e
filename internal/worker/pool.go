// Package worker runs background tasks on a fixed set of goroutines with a
// bounded queue. Task failures and panics are reported on an error channel
// instead of being dropped.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrQueueFull  = errors.New("worker queue is full")
	ErrPoolClosed = errors.New("worker pool is closed")
)

type Task struct {
	Name string
	Run  func(ctx context.Context) error
	// OnDrop, if set, runs instead of Run when the task is still queued at
	// shutdown. Its context is not cancelled by Shutdown.
	OnDrop func(ctx context.Context)
}

type TaskError struct {
	Task  string
	Err   error
	Panic bool
}

func (e *TaskError) Error() string {
	if e.Panic {
		return fmt.Sprintf("task %s panicked: %v", e.Task, e.Err)
	}
	return fmt.Sprintf("task %s: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

type Pool struct {
	queue  chan Task
	errs   chan *TaskError
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool starts workers goroutines. Tasks run with a context derived from
// ctx that is cancelled on Shutdown.
func NewPool(ctx context.Context, workers, queueSize int, log *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	pctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		queue:  make(chan Task, queueSize),
		errs:   make(chan *TaskError, 64),
		ctx:    pctx,
		cancel: cancel,
		log:    log,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.loop()
	}
	return p
}

// Submit enqueues a task without blocking.
func (p *Pool) Submit(t Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.queue <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Errors delivers task failures. It is closed after Shutdown returns. When
// nobody drains it, failures beyond its buffer are logged and dropped.
func (p *Pool) Errors() <-chan *TaskError {
	return p.errs
}

// Shutdown stops accepting tasks, cancels running ones and waits for the
// workers to exit or ctx to expire. Queued tasks that have not started are
// dropped and their OnDrop hooks run.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(p.errs)
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) loop() {
	defer p.wg.Done()
	for t := range p.queue {
		if p.ctx.Err() != nil {
			p.drop(t)
			continue
		}
		if err := p.run(t); err != nil {
			p.report(err)
		}
	}
}

func (p *Pool) drop(t Task) {
	p.log.Warn("dropping queued task on shutdown", zap.String("task", t.Name))
	if t.OnDrop == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("drop hook panicked", zap.String("task", t.Name), zap.Any("panic", r))
		}
	}()
	t.OnDrop(context.WithoutCancel(p.ctx))
}

func (p *Pool) run(t Task) (te *TaskError) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("task panicked",
				zap.String("task", t.Name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			te = &TaskError{Task: t.Name, Err: fmt.Errorf("%v", r), Panic: true}
		}
	}()
	if err := t.Run(p.ctx); err != nil {
		return &TaskError{Task: t.Name, Err: err}
	}
	return nil
}

func (p *Pool) report(te *TaskError) {
	select {
	case p.errs <- te:
	default:
		p.log.Error("task error dropped, error channel full", zap.Error(te))
	}
}
