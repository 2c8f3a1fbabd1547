package cache

import (
	"context"
	"time"

	"cylinder-backoffice/internal/core"
)

// StockCache caches the stock-levels snapshot served by the inventory
// dashboard endpoint. Implementations must treat a miss as (nil, false,
// nil), never an error.
type StockCache interface {
	Get(ctx context.Context, key string) ([]core.StockLevel, bool, error)
	Set(ctx context.Context, key string, levels []core.StockLevel, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// NoopStockCache is used when no Redis address is configured.
type NoopStockCache struct{}

func (NoopStockCache) Get(_ context.Context, _ string) ([]core.StockLevel, bool, error) {
	return nil, false, nil
}

func (NoopStockCache) Set(_ context.Context, _ string, _ []core.StockLevel, _ time.Duration) error {
	return nil
}

func (NoopStockCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
