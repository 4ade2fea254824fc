package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sandeepkv93/product-catalog-service/internal/domain"
	"github.com/sandeepkv93/product-catalog-service/internal/observability"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository interface {
	FindAll(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id uint) (*domain.Product, error)
	FindBySKU(ctx context.Context, sku string) (*domain.Product, error)
	FindByCategory(ctx context.Context, category string) ([]domain.Product, error)
	ListSortedByPrice(ctx context.Context, descending bool) ([]domain.Product, error)
	DistinctCategories(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
	// CreateBatch inserts every product in one transaction; a constraint
	// violation fails the whole batch.
	CreateBatch(ctx context.Context, batch []domain.Product) error
	// UpsertBatch is CreateBatch with rows matched on sku overwritten in place.
	UpsertBatch(ctx context.Context, batch []domain.Product) error
}

type GormProductRepository struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).Order("id asc").Find(&products).Error
	record(ctx, "find_all", err)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, notFoundOr(ctx, "find_by_id", err)
	}
	record(ctx, "find_by_id", nil)
	return &product, nil
}

func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, notFoundOr(ctx, "find_by_sku", err)
	}
	record(ctx, "find_by_sku", nil)
	return &product, nil
}

func (r *GormProductRepository) FindByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).
		Where("LOWER(category) = ?", strings.ToLower(category)).
		Order("id asc").
		Find(&products).Error
	record(ctx, "find_by_category", err)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) ListSortedByPrice(ctx context.Context, descending bool) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "price"}, Desc: descending}).
		Order("id asc").
		Find(&products).Error
	record(ctx, "list_sorted_by_price", err)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	err := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("category IS NOT NULL").
		Distinct().
		Pluck("category", &categories).Error
	record(ctx, "distinct_categories", err)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Count(&n).Error
	record(ctx, "count", err)
	return n, err
}

func (r *GormProductRepository) CreateBatch(ctx context.Context, batch []domain.Product) error {
	if len(batch) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&batch).Error
	})
	record(ctx, "create_batch", err)
	return err
}

func (r *GormProductRepository) UpsertBatch(ctx context.Context, batch []domain.Product) error {
	if len(batch) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sku"}},
			UpdateAll: true,
		}).Create(&batch).Error
	})
	record(ctx, "upsert_batch", err)
	return err
}

func notFoundOr(ctx context.Context, operation string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		observability.RecordRepositoryOperation(ctx, "product", operation, "not_found")
		return ErrProductNotFound
	}
	record(ctx, operation, err)
	return err
}

func record(ctx context.Context, operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordRepositoryOperation(ctx, "product", operation, outcome)
}
