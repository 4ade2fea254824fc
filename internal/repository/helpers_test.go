package repository

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sandeepkv93/product-catalog-service/internal/database"
	"github.com/sandeepkv93/product-catalog-service/internal/domain"
)

func newRepositoryDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "repository.db"))
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
	return db
}

func productFixture(i int, category string, price string) domain.Product {
	return domain.Product{
		Title:    fmt.Sprintf("Product %02d", i),
		Category: category,
		Price:    decimal.RequireFromString(price),
		SKU:      fmt.Sprintf("SKU-%03d", i),
		Tags:     []string{"tag-a", "tag-b"},
		Reviews:  []domain.Review{{Rating: 4, Comment: "fine", ReviewerName: "r"}},
	}
}

type fixtureSpec struct {
	i        int
	category string
	price    string
}

func fixtures(specs ...fixtureSpec) []domain.Product {
	out := make([]domain.Product, 0, len(specs))
	for _, s := range specs {
		out = append(out, productFixture(s.i, s.category, s.price))
	}
	return out
}
