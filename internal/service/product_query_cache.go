package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sandeepkv93/product-catalog-service/internal/domain"
	"github.com/sandeepkv93/product-catalog-service/internal/observability"
)

const (
	ProductsNamespace           = "products"
	ProductsByCategoryNamespace = "products_by_category"
)

var productCacheNamespaces = []string{ProductsNamespace, ProductsByCategoryNamespace}

// ProductQueryCache memoizes product list queries. Concurrent misses on the
// same key share one computation. InvalidateAll bumps a generation so a
// computation that started before the invalidation never writes its result.
type ProductQueryCache struct {
	store  ProductCacheStore
	ttl    time.Duration
	logger *slog.Logger
	sf     singleflight.Group

	mu         sync.RWMutex
	generation uint64
}

func NewProductQueryCache(store ProductCacheStore, ttl time.Duration, logger *slog.Logger) *ProductQueryCache {
	if store == nil {
		store = NewNoopProductCacheStore()
	}
	return &ProductQueryCache{
		store:  store,
		ttl:    ttl,
		logger: observability.WithComponent(logger, "product_query_cache"),
	}
}

func (c *ProductQueryCache) GetOrCompute(ctx context.Context, namespace, key string, compute func(context.Context) ([]domain.Product, error)) ([]domain.Product, error) {
	if products, ok := c.lookup(ctx, namespace, key); ok {
		return products, nil
	}

	gen := c.currentGeneration()
	sfKey := fmt.Sprintf("g%d:%s:%s", gen, namespace, key)
	result, err, shared := c.sf.Do(sfKey, func() (interface{}, error) {
		// Waiters share this computation, so one caller going away must not
		// fail the others.
		sctx := context.WithoutCancel(ctx)
		if products, ok := c.lookup(sctx, namespace, key); ok {
			return products, nil
		}
		products, err := compute(sctx)
		if err != nil {
			return nil, err
		}
		c.put(sctx, gen, namespace, key, products)
		return products, nil
	})
	if shared {
		observability.RecordCacheEvent(ctx, namespace, "shared")
	}
	if err != nil {
		return nil, err
	}
	products, ok := result.([]domain.Product)
	if !ok {
		return nil, fmt.Errorf("invalid cached result type %T", result)
	}
	return products, nil
}

// InvalidateAll drops every namespace. Store failures are logged and
// returned joined; the generation bump applies regardless.
func (c *ProductQueryCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++

	var firstErr error
	for _, ns := range productCacheNamespaces {
		observability.RecordCacheEvent(ctx, ns, "invalidate")
		if err := c.store.InvalidateNamespace(ctx, ns); err != nil {
			c.logger.WarnContext(ctx, "cache namespace invalidation failed", "namespace", ns, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("invalidate %s: %w", ns, err)
			}
		}
	}
	return firstErr
}

func (c *ProductQueryCache) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *ProductQueryCache) lookup(ctx context.Context, namespace, key string) ([]domain.Product, bool) {
	payload, ok, err := c.store.Get(ctx, namespace, key)
	if err != nil {
		observability.RecordCacheEvent(ctx, namespace, "error")
		c.logger.WarnContext(ctx, "cache read failed", "namespace", namespace, "error", err)
		return nil, false
	}
	if !ok {
		observability.RecordCacheEvent(ctx, namespace, "miss")
		return nil, false
	}
	var products []domain.Product
	if err := json.Unmarshal(payload, &products); err != nil {
		observability.RecordCacheEvent(ctx, namespace, "error")
		c.logger.WarnContext(ctx, "cache payload undecodable", "namespace", namespace, "error", err)
		return nil, false
	}
	observability.RecordCacheEvent(ctx, namespace, "hit")
	return products, true
}

func (c *ProductQueryCache) put(ctx context.Context, gen uint64, namespace, key string, products []domain.Product) {
	payload, err := json.Marshal(products)
	if err != nil {
		c.logger.WarnContext(ctx, "cache payload unencodable", "namespace", namespace, "error", err)
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.generation != gen {
		return
	}
	if err := c.store.Set(ctx, namespace, key, payload, c.ttl); err != nil {
		observability.RecordCacheEvent(ctx, namespace, "error")
		c.logger.WarnContext(ctx, "cache write failed", "namespace", namespace, "error", err)
		return
	}
	observability.RecordCacheEvent(ctx, namespace, "set")
}
