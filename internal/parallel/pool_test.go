package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
}

func TestWorkerPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := NewWorkerPool(n)
		if pool.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want GOMAXPROCS", n, pool.Workers())
		}
		pool.Close()
	}
}

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}

	pool.ExecuteAll(work)

	if got := counter.Load(); got != 100 {
		t.Errorf("counter = %d, want 100", got)
	}
}

func TestWorkerPool_ExecuteAllAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()

	var ran atomic.Bool
	pool.ExecuteAll([]func(){func() { ran.Store(true) }})
	if ran.Load() {
		t.Error("closed pool should not run work")
	}
	pool.Close() // second Close is a no-op
}

func TestWorkerPool_ForEach(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	seen := make([]atomic.Int32, 50)
	pool.ForEach(context.Background(), len(seen), func(_ context.Context, i int) {
		seen[i].Add(1)
	}, nil)

	for i := range seen {
		if got := seen[i].Load(); got != 1 {
			t.Errorf("item %d ran %d times, want 1", i, got)
		}
	}
}

func TestWorkerPool_ForEachCancel(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ran, skipped atomic.Int32
	pool.ForEach(ctx, 20, func(_ context.Context, i int) {
		ran.Add(1)
		if i == 0 {
			cancel()
		}
	}, func(int) { skipped.Add(1) })

	if ran.Load()+skipped.Load() != 20 {
		t.Errorf("ran %d + skipped %d != 20", ran.Load(), skipped.Load())
	}
	if skipped.Load() == 0 {
		t.Error("expected items after cancel to be skipped")
	}
}

func TestWorkerPool_Submit(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	var wg sync.WaitGroup
	var counter atomic.Int32
	for range 10 {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("submitted work did not finish")
	}
	if counter.Load() != 10 {
		t.Errorf("counter = %d, want 10", counter.Load())
	}

	pool.Submit(nil) // ignored
}

func TestWorkerPool_ConcurrentExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var total atomic.Int64
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			work := make([]func(), 25)
			for i := range work {
				work[i] = func() { total.Add(1) }
			}
			pool.ExecuteAll(work)
		}()
	}
	wg.Wait()

	if total.Load() != 100 {
		t.Errorf("total = %d, want 100", total.Load())
	}
}
