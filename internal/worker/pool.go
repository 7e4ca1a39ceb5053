package worker

import (
	"context"
	"log"
	"sync"
)

// Job is a unit of background work, typically one workflow pipeline run.
type Job func(ctx context.Context)

// Pool runs jobs on a bounded set of workers. Request handlers enqueue and
// return; the accepted job owns the workflow lifecycle from there.
type Pool struct {
	workers   int
	jobs      chan Job
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool with the given number of workers and queue depth.
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers * 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers: workers,
		jobs:    make(chan Job, queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			job(p.ctx)
		}
	}
}

// Submit enqueues a job. It returns false if the pool is stopped or the
// queue is full; callers decide whether a full queue is fatal.
func (p *Pool) Submit(job Job) bool {
	select {
	case <-p.ctx.Done():
		return false
	default:
	}

	select {
	case p.jobs <- job:
		return true
	default:
		log.Println("worker: job queue full, rejecting job")
		return false
	}
}

// Stop cancels in-flight jobs and waits for the workers to exit.
func (p *Pool) Stop() {
	p.closeOnce.Do(func() {
		p.cancel()
		close(p.jobs)
	})
	p.wg.Wait()
}
