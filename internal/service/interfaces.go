package service

import (
	"context"

	"github.com/sandeepkv93/product-catalog-service/internal/domain"
)

//go:generate mockgen -destination=gomock/mocks.go -package=gomock github.com/sandeepkv93/product-catalog-service/internal/service ProductService,IngestionStatusReader

type ProductService interface {
	FindAll(ctx context.Context) ([]domain.Product, error)
	FindByCategory(ctx context.Context, category string) ([]domain.Product, error)
	FindProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	FindByID(ctx context.Context, id uint) (*domain.Product, error)
	FindBySKU(ctx context.Context, sku string) (*domain.Product, error)
	SortByPrice(ctx context.Context, direction string) ([]domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

type IngestionStatusReader interface {
	Status() IngestionStatus
}

var (
	_ ProductService        = (*ProductServiceImpl)(nil)
	_ IngestionStatusReader = (*IngestionJob)(nil)
	_ IngestionRunner       = (*IngestionService)(nil)
)
