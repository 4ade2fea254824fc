package health

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/product-catalog-service/internal/database"
)

func TestDBCheckerPingsDatabase(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "health.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	checker := NewDBChecker(db)
	if res := checker.Check(context.Background()); !res.Healthy {
		t.Fatalf("expected healthy db, got %+v", res)
	}

	sqlDB, _ := db.DB()
	_ = sqlDB.Close()
	if res := checker.Check(context.Background()); res.Healthy || res.Error == "" {
		t.Fatalf("expected unhealthy db after close, got %+v", res)
	}
}

func TestRedisCheckerPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checker := NewRedisChecker(client)
	if res := checker.Check(context.Background()); !res.Healthy {
		t.Fatalf("expected healthy redis, got %+v", res)
	}
	mr.Close()
	if res := checker.Check(context.Background()); res.Healthy {
		t.Fatalf("expected unhealthy redis after shutdown, got %+v", res)
	}
}
