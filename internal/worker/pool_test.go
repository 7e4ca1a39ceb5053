package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsSubmittedJobs(t *testing.T) {
	pool := NewPool(2, 8)
	pool.Start()

	var ran int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		ok := pool.Submit(func(ctx context.Context) {
			defer wg.Done()
			atomic.AddInt32(&ran, 1)
		})
		if !ok {
			t.Fatal("submit rejected with capacity available")
		}
	}
	wg.Wait()
	pool.Stop()

	if got := atomic.LoadInt32(&ran); got != 5 {
		t.Errorf("ran %d jobs, want 5", got)
	}
}

func TestPoolRejectsWhenQueueFull(t *testing.T) {
	pool := NewPool(1, 1)
	pool.Start()
	defer pool.Stop()

	block := make(chan struct{})
	started := make(chan struct{})

	// Occupy the single worker.
	pool.Submit(func(ctx context.Context) {
		close(started)
		<-block
	})
	<-started

	// Fill the queue.
	if !pool.Submit(func(ctx context.Context) {}) {
		t.Fatal("queue slot should accept one job")
	}

	// Queue full now.
	if pool.Submit(func(ctx context.Context) {}) {
		t.Error("submit accepted beyond queue capacity")
	}

	close(block)
}

func TestPoolRejectsAfterStop(t *testing.T) {
	pool := NewPool(1, 4)
	pool.Start()
	pool.Stop()

	if pool.Submit(func(ctx context.Context) {}) {
		t.Error("submit accepted after stop")
	}
}

func TestPoolStopCancelsJobContext(t *testing.T) {
	pool := NewPool(1, 1)
	pool.Start()

	canceled := make(chan struct{})
	started := make(chan struct{})
	pool.Submit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(canceled)
	})
	<-started

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("job context not canceled by Stop")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
