// Package storefront provides the public read surface: the product
// list with per-branch availability.
package storefront

import (
	"context"
	"fmt"

	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain"
	"tradebook/internal/domain/catalogs/product"
	"tradebook/internal/domain/registers/stock"
	"tradebook/pkg/logger"
)

// Item is one storefront row. Quantities are a point-in-time snapshot;
// the cache may serve them slightly stale.
type Item struct {
	ProductID    id.ID          `json:"productId"`
	SKU          string         `json:"sku"`
	Name         string         `json:"name"`
	SellingPrice types.Money    `json:"sellingPrice"`
	Stock        stock.Counters `json:"stock"`
	Total        types.Quantity `json:"total"`
}

// Cache is a TTL snapshot store for the storefront listing.
type Cache interface {
	Get(ctx context.Context) ([]Item, bool)
	Set(ctx context.Context, items []Item)
	Invalidate(ctx context.Context)
}

// Service builds the storefront listing.
type Service struct {
	products product.Repository
	stock    *stock.Service
	cache    Cache
}

// NewService creates a new storefront service. cache may be nil, in
// which case every call hits the database.
func NewService(products product.Repository, stockService *stock.Service, cache Cache) *Service {
	return &Service{
		products: products,
		stock:    stockService,
		cache:    cache,
	}
}

// List returns all active products with their branch counters.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	if s.cache != nil {
		if items, ok := s.cache.Get(ctx); ok {
			return items, nil
		}
	}

	result, err := s.products.List(ctx, domain.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	items := make([]Item, 0, len(result.Items))
	for _, p := range result.Items {
		counters, err := s.stock.Counters(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("stock counters for %s: %w", p.ID, err)
		}
		items = append(items, Item{
			ProductID:    p.ID,
			SKU:          p.SKU,
			Name:         p.Name,
			SellingPrice: p.SellingPrice,
			Stock:        counters,
			Total:        counters.Total(),
		})
	}

	if s.cache != nil {
		s.cache.Set(ctx, items)
	}

	logger.Debug(ctx, "storefront listing rebuilt", "items", len(items))
	return items, nil
}

// Invalidate drops the cached snapshot. Called after stock-affecting
// mutations when freshness matters more than the TTL allows.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
