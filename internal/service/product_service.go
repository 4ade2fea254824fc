package service

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sandeepkv93/product-catalog-service/internal/domain"
	"github.com/sandeepkv93/product-catalog-service/internal/observability"
	"github.com/sandeepkv93/product-catalog-service/internal/repository"
)

var ErrInvalidSortDirection = errors.New("sort direction must be asc or desc")

const (
	SortAscending  = "asc"
	SortDescending = "desc"

	allProductsKey = "all"
	emptyKeyPart   = "-"
)

// ProductFilter narrows FindProducts. Empty fields are not applied.
type ProductFilter struct {
	Category   string
	SearchTerm string
	SortOrder  string
}

type ProductServiceImpl struct {
	repo  repository.ProductRepository
	cache *ProductQueryCache
}

func NewProductService(repo repository.ProductRepository, cache *ProductQueryCache) *ProductServiceImpl {
	return &ProductServiceImpl{repo: repo, cache: cache}
}

func (s *ProductServiceImpl) FindAll(ctx context.Context) ([]domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "find_all", outcome, time.Since(start)) }()

	products, err := s.cache.GetOrCompute(ctx, ProductsNamespace, allProductsKey, s.repo.FindAll)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return products, nil
}

func (s *ProductServiceImpl) FindByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "find_by_category", outcome, time.Since(start)) }()

	products, err := s.cache.GetOrCompute(ctx, ProductsByCategoryNamespace, lowerKey(category), func(ctx context.Context) ([]domain.Product, error) {
		return s.repo.FindByCategory(ctx, category)
	})
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return products, nil
}

// FindProducts filters the full catalog in memory: category equality, then
// search on title, SKU or exact id, then an optional stable price sort.
func (s *ProductServiceImpl) FindProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "find_products", outcome, time.Since(start)) }()

	key := strings.Join([]string{keyPart(filter.Category), keyPart(filter.SearchTerm), keyPart(filter.SortOrder)}, "|")
	products, err := s.cache.GetOrCompute(ctx, ProductsNamespace, key, func(ctx context.Context) ([]domain.Product, error) {
		all, err := s.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		return applyFilter(all, filter), nil
	})
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return products, nil
}

func (s *ProductServiceImpl) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "find_by_id", outcome, time.Since(start)) }()

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		outcome = lookupOutcome(err)
		return nil, err
	}
	return product, nil
}

func (s *ProductServiceImpl) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "find_by_sku", outcome, time.Since(start)) }()

	product, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		outcome = lookupOutcome(err)
		return nil, err
	}
	return product, nil
}

func (s *ProductServiceImpl) SortByPrice(ctx context.Context, direction string) ([]domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "sort_by_price", outcome, time.Since(start)) }()

	var descending bool
	switch {
	case strings.EqualFold(direction, SortAscending):
	case strings.EqualFold(direction, SortDescending):
		descending = true
	default:
		outcome = "bad_request"
		return nil, ErrInvalidSortDirection
	}
	products, err := s.repo.ListSortedByPrice(ctx, descending)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return products, nil
}

func (s *ProductServiceImpl) Categories(ctx context.Context) ([]string, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "categories", outcome, time.Since(start)) }()

	categories, err := s.repo.DistinctCategories(ctx)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return categories, nil
}

func applyFilter(all []domain.Product, filter ProductFilter) []domain.Product {
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if filter.Category != "" && !equalFold(p.Category, filter.Category) {
			continue
		}
		if filter.SearchTerm != "" && !matchesSearch(p, filter.SearchTerm) {
			continue
		}
		out = append(out, p)
	}
	switch {
	case strings.EqualFold(filter.SortOrder, SortAscending):
		slices.SortStableFunc(out, func(a, b domain.Product) int { return a.Price.Cmp(b.Price) })
	case strings.EqualFold(filter.SortOrder, SortDescending):
		slices.SortStableFunc(out, func(a, b domain.Product) int { return b.Price.Cmp(a.Price) })
	}
	return out
}

func matchesSearch(p domain.Product, term string) bool {
	fold := cases.Fold()
	needle := fold.String(term)
	if strings.Contains(fold.String(p.Title), needle) || strings.Contains(fold.String(p.SKU), needle) {
		return true
	}
	return strconv.FormatUint(uint64(p.ID), 10) == term
}

func equalFold(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

// lowerKey builds a new Caser per call; Casers are not safe for concurrent use.
func lowerKey(v string) string {
	return cases.Lower(language.Und).String(v)
}

func keyPart(v string) string {
	if v == "" {
		return emptyKeyPart
	}
	return lowerKey(v)
}

func lookupOutcome(err error) string {
	if errors.Is(err, repository.ErrProductNotFound) {
		return "not_found"
	}
	return "error"
}
