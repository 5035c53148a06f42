package build

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/chazu/kerf/pkg/engine"
	"github.com/chazu/kerf/pkg/geom"
)

// Outcome is the single terminal message of a background task.
type Outcome struct {
	Objects geom.Sequence
	Err     error
}

// Task is one dispatched evaluation.
type Task struct {
	cancel  context.CancelFunc
	release func()
	result  chan Outcome
}

// Result delivers exactly one Outcome.
func (t *Task) Result() <-chan Outcome { return t.result }

// Terminate asks the task to stop and hands its worker back to the pool,
// so the next Dispatch does not wait for the evaluation to unwind. Its
// Outcome is still delivered.
func (t *Task) Terminate() {
	t.cancel()
	t.release()
}

// WorkerPool runs evaluations in background goroutines, at most workers at
// a time. Each task gets the request snapshot only and shares no state
// with the caller.
type WorkerPool struct {
	ev  Evaluator
	sem *semaphore.Weighted

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewWorkerPool creates a pool. workers <= 0 means one worker.
func NewWorkerPool(ev Evaluator, workers int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	return &WorkerPool{ev: ev, sem: semaphore.NewWeighted(int64(workers))}
}

// Dispatch starts req on a free worker. It fails with a *DispatchError when
// the pool is closed or every worker is busy.
func (p *WorkerPool) Dispatch(ctx context.Context, req engine.Request) (*Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, &DispatchError{Reason: "worker pool closed"}
	}
	if !p.sem.TryAcquire(1) {
		return nil, &DispatchError{Reason: "no worker available"}
	}

	tctx, cancel := context.WithCancel(ctx)
	var once sync.Once
	t := &Task{
		cancel:  cancel,
		release: func() { once.Do(func() { p.sem.Release(1) }) },
		result:  make(chan Outcome, 1),
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer t.release()
		defer cancel()
		seq, err := p.ev.Evaluate(tctx, req)
		t.result <- Outcome{Objects: seq, Err: err}
	}()
	return t, nil
}

// Close rejects further dispatches and waits for running tasks to return.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}
