package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sandeepkv93/product-catalog-service/internal/observability"
)

var ErrIngestionInProgress = errors.New("ingestion already in progress")

type IngestionState string

const (
	IngestionIdle      IngestionState = "idle"
	IngestionRunning   IngestionState = "running"
	IngestionSucceeded IngestionState = "succeeded"
	IngestionFailed    IngestionState = "failed"
)

type IngestionStatus struct {
	State      IngestionState   `json:"state"`
	StartedAt  *time.Time       `json:"startedAt,omitempty"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
	LastResult *IngestionResult `json:"lastResult,omitempty"`
	LastError  string           `json:"lastError,omitempty"`
}

type IngestionRunner interface {
	Run(ctx context.Context) (IngestionResult, error)
}

// IngestionJob runs ingestion in the background at most once at a time and
// keeps the outcome of the latest run. The run owns its goroutine; the worker
// pool only carries the batch tasks the run waits on.
type IngestionJob struct {
	runner IngestionRunner
	logger *slog.Logger

	mu     sync.Mutex
	status IngestionStatus
	done   chan struct{}
}

func NewIngestionJob(runner IngestionRunner, logger *slog.Logger) *IngestionJob {
	done := make(chan struct{})
	close(done)
	return &IngestionJob{
		runner: runner,
		logger: observability.WithComponent(logger, "ingestion_job"),
		status: IngestionStatus{State: IngestionIdle},
		done:   done,
	}
}

// Start launches one run and returns immediately. The run is bound to ctx.
func (j *IngestionJob) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.status.State == IngestionRunning {
		j.mu.Unlock()
		return ErrIngestionInProgress
	}
	now := time.Now().UTC()
	j.status = IngestionStatus{
		State:      IngestionRunning,
		StartedAt:  &now,
		LastResult: j.status.LastResult,
	}
	done := make(chan struct{})
	j.done = done
	j.mu.Unlock()

	go j.run(ctx, done)
	return nil
}

// Done is closed when no run is in flight.
func (j *IngestionJob) Done() <-chan struct{} {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.done
}

// Wait blocks until the current run finishes or ctx ends.
func (j *IngestionJob) Wait(ctx context.Context) (IngestionStatus, error) {
	select {
	case <-j.Done():
		return j.Status(), nil
	case <-ctx.Done():
		return j.Status(), ctx.Err()
	}
}

func (j *IngestionJob) Status() IngestionStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

func (j *IngestionJob) run(ctx context.Context, done chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			j.finish(done, IngestionResult{}, fmt.Errorf("ingestion panicked: %v", r))
		}
	}()
	result, err := j.runner.Run(ctx)
	j.finish(done, result, err)
}

func (j *IngestionJob) finish(done chan struct{}, result IngestionResult, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done != done {
		return
	}
	now := time.Now().UTC()
	j.status.FinishedAt = &now
	if err != nil {
		j.status.State = IngestionFailed
		j.status.LastError = err.Error()
		j.logger.ErrorContext(context.Background(), "ingestion run failed", "error", err)
	} else {
		j.status.State = IngestionSucceeded
		j.status.LastError = ""
		j.logger.Info("ingestion run completed", "run_id", result.RunID, "records_persisted", result.RecordsPersisted)
	}
	if result.RunID != "" {
		r := result
		j.status.LastResult = &r
	}
	close(done)
}
