package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sandeepkv93/product-catalog-service/internal/config"
	"github.com/sandeepkv93/product-catalog-service/internal/domain"
	"github.com/sandeepkv93/product-catalog-service/internal/observability"
	"github.com/sandeepkv93/product-catalog-service/internal/repository"
	"github.com/sandeepkv93/product-catalog-service/internal/resilience"
)

const DefaultIngestBatchSize = 15

type ProductFeed interface {
	Fetch(ctx context.Context) ([]domain.ProductTransfer, error)
}

// TaskRunner is satisfied by worker.Pool.
type TaskRunner interface {
	SubmitOrRun(ctx context.Context, task func()) error
}

type ProductCacheInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

type IngestionOptions struct {
	BatchSize    int
	ReingestMode string
}

type IngestionResult struct {
	RunID            string        `json:"runId"`
	Fetched          int           `json:"fetched"`
	Batches          int           `json:"batches"`
	BatchesSucceeded int           `json:"batchesSucceeded"`
	BatchesFailed    int           `json:"batchesFailed"`
	RecordsPersisted int           `json:"recordsPersisted"`
	Duration         time.Duration `json:"durationNanos"`
}

// IngestionService loads the upstream feed into the record store.
type IngestionService struct {
	feed   ProductFeed
	repo   repository.ProductRepository
	runner TaskRunner
	cache  ProductCacheInvalidator
	policy *resilience.Policy
	opts   IngestionOptions
	logger *slog.Logger
}

func NewIngestionService(
	feed ProductFeed,
	repo repository.ProductRepository,
	runner TaskRunner,
	cache ProductCacheInvalidator,
	policy *resilience.Policy,
	opts IngestionOptions,
	logger *slog.Logger,
) *IngestionService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultIngestBatchSize
	}
	if opts.ReingestMode == "" {
		opts.ReingestMode = config.ReingestModeUpsert
	}
	return &IngestionService{
		feed:   feed,
		repo:   repo,
		runner: runner,
		cache:  cache,
		policy: policy,
		opts:   opts,
		logger: observability.WithComponent(logger, "ingestion"),
	}
}

// NewIngestionFallback returns the fallback used once the feed cannot be
// loaded. It only reports; previously persisted data stays untouched.
func NewIngestionFallback(logger *slog.Logger) resilience.FallbackFunc {
	logger = observability.WithComponent(logger, "ingestion")
	return func(ctx context.Context, cause error) {
		logger.ErrorContext(ctx, "product feed ingestion failed, keeping existing catalog", "error", cause)
	}
}

// Run fetches the feed through the resilience policy, then persists it in
// fixed-size batches on the task runner. Batches succeed or fail on their
// own. Every run that gets past the fetch invalidates the query cache.
func (s *IngestionService) Run(ctx context.Context) (result IngestionResult, err error) {
	runID := uuid.NewString()
	ctx, span := observability.Tracer().Start(ctx, "ingestion.run", trace.WithAttributes(attribute.String("ingestion.run_id", runID)))
	logger := s.logger.With("run_id", runID)
	start := time.Now()
	result.RunID = runID
	outcome := "success"
	defer func() {
		result.Duration = time.Since(start)
		observability.RecordIngestionRun(ctx, outcome, result.Duration)
		span.SetAttributes(
			attribute.Int("ingestion.fetched", result.Fetched),
			attribute.Int("ingestion.batches_failed", result.BatchesFailed),
			attribute.Int("ingestion.records_persisted", result.RecordsPersisted),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	logger.InfoContext(ctx, "ingestion started", "batch_size", s.opts.BatchSize, "reingest_mode", s.opts.ReingestMode)
	var transfers []domain.ProductTransfer
	err = s.policy.Execute(ctx, func(ctx context.Context) error {
		fetched, fetchErr := s.feed.Fetch(ctx)
		if fetchErr != nil {
			return fetchErr
		}
		transfers = fetched
		return nil
	})
	if err != nil {
		outcome = "fallback"
		if !errors.Is(err, resilience.ErrFallback) {
			outcome = "cancelled"
		}
		return result, err
	}

	result.Fetched = len(transfers)
	if len(transfers) == 0 {
		outcome = "empty"
		logger.InfoContext(ctx, "feed returned no products, nothing to persist")
	} else {
		batches := partition(domain.ToRecords(transfers), s.opts.BatchSize)
		result.Batches = len(batches)
		s.persist(ctx, logger, batches, &result)
		if result.BatchesFailed > 0 {
			outcome = "partial"
		}
	}

	if invErr := s.cache.InvalidateAll(ctx); invErr != nil {
		logger.WarnContext(ctx, "query cache invalidation failed", "error", invErr)
	}
	logger.InfoContext(ctx, "ingestion finished",
		"fetched", result.Fetched,
		"batches", result.Batches,
		"batches_failed", result.BatchesFailed,
		"records_persisted", result.RecordsPersisted,
		"duration", time.Since(start).String(),
	)
	return result, nil
}

func (s *IngestionService) persist(ctx context.Context, logger *slog.Logger, batches [][]domain.Product, result *IngestionResult) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	tally := func(size int, ok bool) {
		mu.Lock()
		defer mu.Unlock()
		if ok {
			result.BatchesSucceeded++
			result.RecordsPersisted += size
			return
		}
		result.BatchesFailed++
	}

	for i, batch := range batches {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			tally(len(batch), s.persistBatch(ctx, logger, i, batch) == nil)
		}
		if err := s.runner.SubmitOrRun(ctx, task); err != nil {
			wg.Done()
			logger.ErrorContext(ctx, "batch not scheduled", "batch", i, "size", len(batch), "error", err)
			observability.RecordIngestionBatch(ctx, "rejected", len(batch))
			tally(len(batch), false)
		}
	}
	wg.Wait()
}

func (s *IngestionService) persistBatch(ctx context.Context, logger *slog.Logger, index int, batch []domain.Product) error {
	ctx, span := observability.Tracer().Start(ctx, "ingestion.persist_batch", trace.WithAttributes(
		attribute.Int("ingestion.batch_index", index),
		attribute.Int("ingestion.batch_size", len(batch)),
	))
	defer span.End()

	var err error
	if s.opts.ReingestMode == config.ReingestModeAppend {
		err = s.repo.CreateBatch(ctx, batch)
	} else {
		err = s.repo.UpsertBatch(ctx, batch)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.RecordIngestionBatch(ctx, "error", len(batch))
		logger.ErrorContext(ctx, "batch persist failed", "batch", index, "size", len(batch), "error", err)
		return err
	}
	observability.RecordIngestionBatch(ctx, "success", len(batch))
	return nil
}

// partition splits records into contiguous batches of at most size, keeping
// input order. The last batch may be short.
func partition(records []domain.Product, size int) [][]domain.Product {
	if len(records) == 0 {
		return nil
	}
	out := make([][]domain.Product, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		out = append(out, records[start:end:end])
	}
	return out
}
