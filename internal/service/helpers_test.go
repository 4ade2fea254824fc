package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/sandeepkv93/product-catalog-service/internal/domain"
	"github.com/sandeepkv93/product-catalog-service/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubProductRepo is an in-memory ProductRepository keyed by SKU.
type stubProductRepo struct {
	mu          sync.Mutex
	items       []domain.Product
	nextID      uint
	findAllHits atomic.Int32
	failFindAll error
	failSKUs    map[string]bool
}

func newStubProductRepo(items ...domain.Product) *stubProductRepo {
	r := &stubProductRepo{}
	for _, p := range items {
		r.add(p)
	}
	return r
}

func (s *stubProductRepo) add(p domain.Product) {
	s.nextID++
	if p.ID == 0 {
		p.ID = s.nextID
	}
	s.items = append(s.items, p)
}

func (s *stubProductRepo) snapshot() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *stubProductRepo) FindAll(context.Context) ([]domain.Product, error) {
	s.findAllHits.Add(1)
	if s.failFindAll != nil {
		return nil, s.failFindAll
	}
	return s.snapshot(), nil
}

func (s *stubProductRepo) FindByID(_ context.Context, id uint) (*domain.Product, error) {
	for _, p := range s.snapshot() {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (s *stubProductRepo) FindBySKU(_ context.Context, sku string) (*domain.Product, error) {
	for _, p := range s.snapshot() {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (s *stubProductRepo) FindByCategory(_ context.Context, category string) ([]domain.Product, error) {
	out := []domain.Product{}
	for _, p := range s.snapshot() {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubProductRepo) ListSortedByPrice(_ context.Context, descending bool) ([]domain.Product, error) {
	out := s.snapshot()
	slices.SortStableFunc(out, func(a, b domain.Product) int {
		if c := a.Price.Cmp(b.Price); c != 0 {
			if descending {
				return -c
			}
			return c
		}
		return int(a.ID) - int(b.ID)
	})
	return out, nil
}

func (s *stubProductRepo) DistinctCategories(context.Context) ([]string, error) {
	var out []string
	for _, p := range s.snapshot() {
		if !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	return out, nil
}

func (s *stubProductRepo) Count(context.Context) (int64, error) {
	return int64(len(s.snapshot())), nil
}

func (s *stubProductRepo) CreateBatch(_ context.Context, batch []domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range batch {
		if s.failSKUs[p.SKU] {
			return fmt.Errorf("constraint violation on %s", p.SKU)
		}
	}
	for _, p := range batch {
		p.ID = 0
		s.add(p)
	}
	return nil
}

func (s *stubProductRepo) UpsertBatch(ctx context.Context, batch []domain.Product) error {
	return s.CreateBatch(ctx, batch)
}

func product(id uint, title, category, sku, price string) domain.Product {
	return domain.Product{
		ID:       id,
		Title:    title,
		Category: category,
		SKU:      sku,
		Price:    decimal.RequireFromString(price),
	}
}

func ids(products []domain.Product) []uint {
	out := make([]uint, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

// inlineRunner runs tasks on the caller.
type inlineRunner struct{}

func (inlineRunner) SubmitOrRun(_ context.Context, task func()) error {
	task()
	return nil
}
