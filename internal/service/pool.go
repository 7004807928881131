package service

import (
	"context"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	zerrors "github.com/zzenonn/zingest/internal/errors"
)

// Task is one unit of work run by a pool worker. The context is cancelled
// when the pool is stopped.
type Task func(ctx context.Context)

// Pool runs submitted tasks on a fixed number of workers. Submissions block
// while every worker is busy and the queue is full.
type Pool struct {
	size  int
	tasks chan Task

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewPool creates a pool with size workers. It does nothing until Start.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		size:  size,
		tasks: make(chan Task, size),
	}
}

// Start launches the workers. They exit when ctx is done or Stop is called.
func (p *Pool) Start(ctx context.Context) {
	p.once.Do(func() {
		p.ctx, p.cancel = context.WithCancel(ctx)
		for i := 0; i < p.size; i++ {
			p.wg.Add(1)
			go p.worker()
		}
	})
}

// Submit queues task. It fails if the pool has stopped or ctx is done first.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if p.ctx == nil {
		return zerrors.ErrPoolStopped
	}
	select {
	case <-p.ctx.Done():
		return zerrors.ErrPoolStopped
	default:
	}

	select {
	case p.tasks <- task:
		return nil
	case <-p.ctx.Done():
		return zerrors.ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels running tasks and discards queued ones without waiting.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

// Wait blocks until every worker has exited after Stop.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.tasks:
			if p.ctx.Err() != nil {
				return
			}
			p.run(task)
		}
	}
}

func (p *Pool) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Encountered failure: %v", r)
		}
	}()
	task(p.ctx)
}

// Barrier lets a pass wait for a fixed number of tasks to finish.
type Barrier struct {
	remaining atomic.Int64
	done      chan struct{}
}

// NewBarrier creates a barrier released after n calls to Done. A barrier
// for zero tasks is released immediately.
func NewBarrier(n int) *Barrier {
	b := &Barrier{done: make(chan struct{})}
	b.remaining.Store(int64(n))
	if n <= 0 {
		close(b.done)
	}
	return b
}

// Done marks one task finished. Calls past the count are ignored.
func (b *Barrier) Done() {
	if b.remaining.Add(-1) == 0 {
		close(b.done)
	}
}

// Wait blocks until every task is done or ctx is cancelled.
func (b *Barrier) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
