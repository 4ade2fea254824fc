package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func shutdown(t *testing.T, p *Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

// blockWorker occupies one worker until the returned release func is called.
func blockWorker(t *testing.T, p *Pool) (release func()) {
	t.Helper()
	started := make(chan struct{})
	gate := make(chan struct{})
	if err := p.Submit(func() {
		close(started)
		<-gate
	}); err != nil {
		t.Fatalf("submit blocker: %v", err)
	}
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("blocking task never started")
	}
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func TestPoolRunsAllSubmittedTasks(t *testing.T) {
	p := New(Config{CoreWorkers: 2, MaxWorkers: 4, QueueCapacity: 50}, discardLogger())
	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		if err := p.Submit(func() {
			defer wg.Done()
			ran.Add(1)
		}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	wg.Wait()
	shutdown(t, p)
	if ran.Load() != 20 {
		t.Fatalf("expected 20 tasks, got %d", ran.Load())
	}
}

func TestPoolRejectsWhenQueueAndWorkersAreFull(t *testing.T) {
	p := New(Config{CoreWorkers: 1, MaxWorkers: 1, QueueCapacity: 1}, discardLogger())
	release := blockWorker(t, p)
	defer shutdown(t, p)
	defer release()

	if err := p.Submit(func() {}); err != nil {
		t.Fatalf("expected queued task, got %v", err)
	}
	if err := p.Submit(func() {}); !errors.Is(err, ErrPoolSaturated) {
		t.Fatalf("expected ErrPoolSaturated, got %v", err)
	}
}

func TestPoolStartsOverflowWorkerWhenQueueIsFull(t *testing.T) {
	p := New(Config{CoreWorkers: 1, MaxWorkers: 2, QueueCapacity: 1}, discardLogger())
	release := blockWorker(t, p)
	defer shutdown(t, p)
	defer release()

	queued := make(chan struct{})
	overflow := make(chan struct{})
	if err := p.Submit(func() { close(queued) }); err != nil {
		t.Fatalf("submit queued: %v", err)
	}
	if err := p.Submit(func() { close(overflow) }); err != nil {
		t.Fatalf("submit overflow: %v", err)
	}

	for name, ch := range map[string]chan struct{}{"overflow": overflow, "queued": queued} {
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Fatalf("%s task did not run while core worker was blocked", name)
		}
	}
}

func TestSubmitOrRunRunsOnCallerWhenSaturated(t *testing.T) {
	p := New(Config{CoreWorkers: 1, MaxWorkers: 1, QueueCapacity: 1}, discardLogger())
	release := blockWorker(t, p)
	defer shutdown(t, p)
	defer release()

	if err := p.Submit(func() {}); err != nil {
		t.Fatalf("fill queue: %v", err)
	}
	ran := false
	if err := p.SubmitOrRun(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("submit or run: %v", err)
	}
	if !ran {
		t.Fatal("expected task to run synchronously on caller")
	}
}

func TestShutdownDrainsQueueAndRejectsNewTasks(t *testing.T) {
	p := New(Config{CoreWorkers: 1, MaxWorkers: 1, QueueCapacity: 10}, discardLogger())
	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		if err := p.Submit(func() { ran.Add(1) }); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	shutdown(t, p)
	if ran.Load() != 5 {
		t.Fatalf("expected queued tasks to drain, ran %d", ran.Load())
	}
	if err := p.Submit(func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPanickingTaskDoesNotKillWorker(t *testing.T) {
	p := New(Config{CoreWorkers: 1, MaxWorkers: 1, QueueCapacity: 2}, discardLogger())
	done := make(chan struct{})
	if err := p.Submit(func() { panic("boom") }); err != nil {
		t.Fatalf("submit panic: %v", err)
	}
	if err := p.Submit(func() { close(done) }); err != nil {
		t.Fatalf("submit follow-up: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker stopped after panic")
	}
	shutdown(t, p)
}
