package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/sandeepkv93/product-catalog-service/internal/config"
	"github.com/sandeepkv93/product-catalog-service/internal/service"
	"github.com/sandeepkv93/product-catalog-service/internal/worker"
)

type countingRunner struct{ calls chan struct{} }

func (r *countingRunner) Run(context.Context) (service.IngestionResult, error) {
	r.calls <- struct{}{}
	return service.IngestionResult{Fetched: 1, Batches: 1, BatchesSucceeded: 1, RecordsPersisted: 1}, nil
}

func newTestApp(t *testing.T, ingestOnStartup bool) (*App, *countingRunner) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		IngestOnStartup:          ingestOnStartup,
		ShutdownTimeout:          2 * time.Second,
		ShutdownHTTPDrainTimeout: time.Second,
	}
	pool := worker.New(worker.Config{CoreWorkers: 1, MaxWorkers: 2, QueueCapacity: 2}, logger)
	runner := &countingRunner{calls: make(chan struct{}, 1)}
	job := service.NewIngestionJob(runner, logger)
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	return New(cfg, logger, server, nil, nil, nil, pool, job), runner
}

func TestRunStartsIngestionAfterListening(t *testing.T) {
	a, runner := newTestApp(t, true)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case <-runner.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("expected startup ingestion to run")
	}
	if _, err := a.Ingestion.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got := a.Ingestion.Status().State; got != service.IngestionSucceeded {
		t.Fatalf("expected succeeded, got %s", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := a.Pool.Submit(func() {}); err != worker.ErrPoolClosed {
		t.Fatalf("expected pool closed after shutdown, got %v", err)
	}
}

func TestRunSkipsIngestionWhenDisabled(t *testing.T) {
	a, runner := newTestApp(t, false)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	select {
	case <-runner.calls:
		t.Fatal("ingestion should not run when disabled")
	default:
	}
	if got := a.Ingestion.Status().State; got != service.IngestionIdle {
		t.Fatalf("expected idle, got %s", got)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestRunReportsListenFailure(t *testing.T) {
	a, _ := newTestApp(t, false)
	a.Server.Addr = "bad-address"
	if err := a.Run(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
	_ = a.Pool.Shutdown(context.Background())
}
