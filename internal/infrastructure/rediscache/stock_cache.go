package rediscache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const stockKeyPrefix = "stock:"

// StockCache keeps the latest committed quantity per product for the
// lock-free availability pre-check. It is advisory only; the exclusive adjust
// path is the sole correctness guarantee.
type StockCache struct {
	client *redis.Client
}

func NewStockCache(client *redis.Client) *StockCache {
	return &StockCache{client: client}
}

// GetStock returns the cached quantity and whether the key was present.
func (c *StockCache) GetStock(ctx context.Context, productID string) (int, bool, error) {
	qty, err := c.client.Get(ctx, stockKeyPrefix+productID).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("stock cache: get %s: %w", productID, err)
	}
	return qty, true, nil
}

func (c *StockCache) SetStock(ctx context.Context, productID string, quantity int) error {
	if err := c.client.Set(ctx, stockKeyPrefix+productID, quantity, 0).Err(); err != nil {
		return fmt.Errorf("stock cache: set %s: %w", productID, err)
	}
	return nil
}
