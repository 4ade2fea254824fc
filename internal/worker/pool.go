// Package worker runs background tasks on a bounded set of goroutines with a
// bounded backlog.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/product-catalog-service/internal/observability"
)

var (
	ErrPoolSaturated = errors.New("worker pool saturated")
	ErrPoolClosed    = errors.New("worker pool closed")
)

type Config struct {
	CoreWorkers   int
	MaxWorkers    int
	QueueCapacity int
}

// Pool keeps CoreWorkers goroutines draining a queue of QueueCapacity tasks.
// When the queue is full, overflow goroutines are started up to MaxWorkers;
// they exit once the queue is empty.
type Pool struct {
	cfg    Config
	queue  chan func()
	group  errgroup.Group
	logger *slog.Logger

	mu      sync.Mutex
	closed  bool
	workers int
}

func New(cfg Config, logger *slog.Logger) *Pool {
	if cfg.CoreWorkers <= 0 {
		cfg.CoreWorkers = 1
	}
	if cfg.MaxWorkers < cfg.CoreWorkers {
		cfg.MaxWorkers = cfg.CoreWorkers
	}
	if cfg.QueueCapacity < 0 {
		cfg.QueueCapacity = 0
	}
	p := &Pool{
		cfg:     cfg,
		queue:   make(chan func(), cfg.QueueCapacity),
		logger:  observability.WithComponent(logger, "worker_pool"),
		workers: cfg.CoreWorkers,
	}
	for i := 0; i < cfg.CoreWorkers; i++ {
		p.group.Go(func() error {
			for task := range p.queue {
				p.run(task)
			}
			return nil
		})
	}
	return p
}

// Submit enqueues task, starting an overflow worker when the backlog is full.
func (p *Pool) Submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.queue <- task:
		observability.RecordWorkerTask(context.Background(), "queued")
		return nil
	default:
	}
	if p.workers >= p.cfg.MaxWorkers {
		observability.RecordWorkerTask(context.Background(), "rejected")
		return ErrPoolSaturated
	}
	p.workers++
	observability.RecordWorkerTask(context.Background(), "overflow")
	p.group.Go(func() error {
		p.run(task)
		p.drainThenExit()
		return nil
	})
	return nil
}

// SubmitOrRun runs task on the calling goroutine when the pool is saturated,
// so callers that wait on their own tasks cannot deadlock the pool.
func (p *Pool) SubmitOrRun(ctx context.Context, task func()) error {
	err := p.Submit(task)
	if !errors.Is(err, ErrPoolSaturated) {
		return err
	}
	observability.RecordWorkerTask(ctx, "caller_runs")
	p.logger.WarnContext(ctx, "worker pool saturated, running task on caller")
	p.run(task)
	return nil
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = p.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}

func (p *Pool) drainThenExit() {
	for {
		p.mu.Lock()
		select {
		case task, ok := <-p.queue:
			p.mu.Unlock()
			if !ok {
				p.retire()
				return
			}
			p.run(task)
		default:
			p.workers--
			p.mu.Unlock()
			return
		}
	}
}

func (p *Pool) retire() {
	p.mu.Lock()
	p.workers--
	p.mu.Unlock()
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker task panicked", "panic", fmt.Sprint(r))
		}
	}()
	task()
}
