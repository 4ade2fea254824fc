package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandeepkv93/product-catalog-service/internal/config"
	"github.com/sandeepkv93/product-catalog-service/internal/database"
	"github.com/sandeepkv93/product-catalog-service/internal/domain"
	"github.com/sandeepkv93/product-catalog-service/internal/repository"
	"github.com/sandeepkv93/product-catalog-service/internal/resilience"
	"github.com/sandeepkv93/product-catalog-service/internal/worker"
)

type stubFeed struct {
	products []domain.ProductTransfer
	err      error
	calls    atomic.Int32
}

func (f *stubFeed) Fetch(context.Context) ([]domain.ProductTransfer, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

type countingInvalidator struct{ calls atomic.Int32 }

func (c *countingInvalidator) InvalidateAll(context.Context) error {
	c.calls.Add(1)
	return nil
}

func feedProducts(n int) []domain.ProductTransfer {
	out := make([]domain.ProductTransfer, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.ProductTransfer{
			ID:       uint(1000 + i),
			Title:    fmt.Sprintf("Feed Product %02d", i),
			Category: []string{"beauty", "furniture", "groceries"}[i%3],
			Price:    float64(i) + 0.99,
			SKU:      fmt.Sprintf("FEED-%03d", i),
			Tags:     []string{"feed"},
		})
	}
	return out
}

func testPolicy(fallbackCalls *atomic.Int32) *resilience.Policy {
	return resilience.NewPolicy(resilience.Config{
		Name:                 "productApi",
		MaxAttempts:          3,
		InitialBackoff:       time.Millisecond,
		MaxBackoff:           5 * time.Millisecond,
		Multiplier:           2,
		FailureRateThreshold: 1,
		MinimumCalls:         100,
		OpenTimeout:          time.Minute,
		HalfOpenMaxCalls:     1,
	}, func(ctx context.Context, cause error) {
		if fallbackCalls != nil {
			fallbackCalls.Add(1)
		}
	}, discardLogger())
}

func newSQLiteRepoForTest(t *testing.T) repository.ProductRepository {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "ingestion.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewProductRepository(db)
}

func newPoolForTest(t *testing.T) *worker.Pool {
	t.Helper()
	pool := worker.New(worker.Config{CoreWorkers: 8, MaxWorkers: 15, QueueCapacity: 50}, discardLogger())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = pool.Shutdown(ctx)
	})
	return pool
}

func TestIngestionPersistsFeedInBatches(t *testing.T) {
	repo := newSQLiteRepoForTest(t)
	feed := &stubFeed{products: feedProducts(32)}
	inv := &countingInvalidator{}
	svc := NewIngestionService(feed, repo, newPoolForTest(t), inv, testPolicy(nil), IngestionOptions{BatchSize: 15}, discardLogger())

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.RunID == "" {
		t.Fatal("expected run id")
	}
	if result.Fetched != 32 || result.Batches != 3 || result.BatchesSucceeded != 3 || result.RecordsPersisted != 32 {
		t.Fatalf("unexpected result %+v", result)
	}
	if inv.calls.Load() != 1 {
		t.Fatalf("expected one cache invalidation, got %d", inv.calls.Load())
	}

	all, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 32 {
		t.Fatalf("expected 32 persisted products, got %d", len(all))
	}
	skus := map[string]bool{}
	for _, p := range all {
		if p.ID >= 1000 {
			t.Fatalf("expected store-assigned identity, got feed id %d", p.ID)
		}
		skus[p.SKU] = true
	}
	if len(skus) != 32 {
		t.Fatalf("expected 32 unique skus, got %d", len(skus))
	}
}

func TestIngestionUpsertModeRefreshesExistingRows(t *testing.T) {
	repo := newSQLiteRepoForTest(t)
	feed := &stubFeed{products: feedProducts(5)}
	svc := NewIngestionService(feed, repo, newPoolForTest(t), &countingInvalidator{}, testPolicy(nil),
		IngestionOptions{BatchSize: 15, ReingestMode: config.ReingestModeUpsert}, discardLogger())

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	feed.products[0].Title = "Renamed"
	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.BatchesFailed != 0 {
		t.Fatalf("expected upsert to succeed, got %+v", result)
	}
	count, _ := repo.Count(context.Background())
	if count != 5 {
		t.Fatalf("expected 5 rows after re-ingestion, got %d", count)
	}
	p, err := repo.FindBySKU(context.Background(), "FEED-001")
	if err != nil || p.Title != "Renamed" {
		t.Fatalf("expected refreshed title, got %+v err=%v", p, err)
	}
}

func TestIngestionAppendModeFailsDuplicateBatches(t *testing.T) {
	repo := newSQLiteRepoForTest(t)
	feed := &stubFeed{products: feedProducts(20)}
	inv := &countingInvalidator{}
	svc := NewIngestionService(feed, repo, newPoolForTest(t), inv, testPolicy(nil),
		IngestionOptions{BatchSize: 15, ReingestMode: config.ReingestModeAppend}, discardLogger())

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.BatchesFailed != 2 || result.RecordsPersisted != 0 {
		t.Fatalf("expected every batch to fail on duplicate sku, got %+v", result)
	}
	if inv.calls.Load() != 1 {
		t.Fatalf("expected no invalidation when nothing persisted, got %d calls", inv.calls.Load())
	}
	count, _ := repo.Count(context.Background())
	if count != 20 {
		t.Fatalf("expected original 20 rows intact, got %d", count)
	}
}

func TestIngestionIsolatesFailedBatch(t *testing.T) {
	repo := newStubProductRepo()
	repo.failSKUs = map[string]bool{"FEED-017": true}
	inv := &countingInvalidator{}
	svc := NewIngestionService(&stubFeed{products: feedProducts(32)}, repo, inlineRunner{}, inv, testPolicy(nil),
		IngestionOptions{BatchSize: 15}, discardLogger())

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.BatchesSucceeded != 2 || result.BatchesFailed != 1 || result.RecordsPersisted != 17 {
		t.Fatalf("unexpected result %+v", result)
	}
	if inv.calls.Load() != 1 {
		t.Fatalf("expected invalidation after partial success, got %d", inv.calls.Load())
	}
	for _, p := range repo.snapshot() {
		if p.SKU >= "FEED-016" && p.SKU <= "FEED-030" {
			t.Fatalf("expected failed batch to persist nothing, found %s", p.SKU)
		}
	}
}

func TestIngestionInvalidatesCacheWhenEveryBatchFails(t *testing.T) {
	repo := newStubProductRepo()
	repo.failSKUs = map[string]bool{"FEED-001": true, "FEED-016": true}
	inv := &countingInvalidator{}
	svc := NewIngestionService(&stubFeed{products: feedProducts(20)}, repo, inlineRunner{}, inv, testPolicy(nil),
		IngestionOptions{BatchSize: 15}, discardLogger())

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.BatchesSucceeded != 0 || result.BatchesFailed != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if inv.calls.Load() != 1 {
		t.Fatalf("expected invalidation after a completed run, got %d", inv.calls.Load())
	}
}

func TestIngestionEmptyFeedIsSuccessfulNoop(t *testing.T) {
	repo := newStubProductRepo(product(1, "existing", "beauty", "OLD-1", "1"))
	inv := &countingInvalidator{}
	svc := NewIngestionService(&stubFeed{}, repo, inlineRunner{}, inv, testPolicy(nil), IngestionOptions{}, discardLogger())

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("expected empty feed to succeed, got %v", err)
	}
	if result.Fetched != 0 || result.Batches != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if inv.calls.Load() != 1 {
		t.Fatalf("expected empty run to invalidate the cache once, got %d", inv.calls.Load())
	}
	if len(repo.snapshot()) != 1 {
		t.Fatal("expected existing data intact")
	}
}

func TestIngestionFallsBackAfterRetries(t *testing.T) {
	repo := newStubProductRepo(product(1, "existing", "beauty", "OLD-1", "1"))
	feed := &stubFeed{err: errors.New("connection reset")}
	inv := &countingInvalidator{}
	var fallbacks atomic.Int32
	svc := NewIngestionService(feed, repo, inlineRunner{}, inv, testPolicy(&fallbacks), IngestionOptions{}, discardLogger())

	result, err := svc.Run(context.Background())
	if !errors.Is(err, resilience.ErrFallback) {
		t.Fatalf("expected fallback error, got %v", err)
	}
	if feed.calls.Load() != 3 {
		t.Fatalf("expected 3 fetch attempts, got %d", feed.calls.Load())
	}
	if fallbacks.Load() != 1 {
		t.Fatalf("expected fallback once, got %d", fallbacks.Load())
	}
	if result.RecordsPersisted != 0 || inv.calls.Load() != 0 {
		t.Fatalf("expected nothing persisted or invalidated, got %+v invalidations=%d", result, inv.calls.Load())
	}
	if len(repo.snapshot()) != 1 {
		t.Fatal("expected prior data intact after failed fetch")
	}
}

func TestPartitionKeepsOrderAndShortTail(t *testing.T) {
	records := domain.ToRecords(feedProducts(32))
	batches := partition(records, 15)
	sizes := make([]int, 0, len(batches))
	var skus []string
	for _, b := range batches {
		sizes = append(sizes, len(b))
		for _, p := range b {
			skus = append(skus, p.SKU)
		}
	}
	if !slices.Equal(sizes, []int{15, 15, 2}) {
		t.Fatalf("expected batch sizes 15,15,2 got %v", sizes)
	}
	if skus[0] != "FEED-001" || skus[31] != "FEED-032" {
		t.Fatalf("expected input order kept, got first=%s last=%s", skus[0], skus[31])
	}
	if partition(nil, 15) != nil {
		t.Fatal("expected no batches for empty input")
	}
}

func TestIngestionJobCompletesOnSingleWorkerPool(t *testing.T) {
	repo := newSQLiteRepoForTest(t)
	pool := worker.New(worker.Config{CoreWorkers: 1, MaxWorkers: 1, QueueCapacity: 50}, discardLogger())
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })
	svc := NewIngestionService(&stubFeed{products: feedProducts(32)}, repo, pool, &countingInvalidator{}, testPolicy(nil),
		IngestionOptions{BatchSize: 15}, discardLogger())
	job := NewIngestionJob(svc, discardLogger())

	if err := job.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err := job.Wait(ctx)
	if err != nil {
		t.Fatalf("job did not finish: state=%s err=%v", status.State, err)
	}
	if status.State != IngestionSucceeded || status.LastResult == nil || status.LastResult.RecordsPersisted != 32 {
		t.Fatalf("unexpected status %+v", status)
	}
	if n, err := repo.Count(context.Background()); err != nil || n != 32 {
		t.Fatalf("expected 32 rows, got %d (%v)", n, err)
	}
}
