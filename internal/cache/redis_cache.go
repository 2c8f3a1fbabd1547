package cache

import (
	"context"
	"encoding/json"
	"time"

	"cylinder-backoffice/internal/core"

	redis "github.com/redis/go-redis/v9"
)

// RedisStockCache backs StockCache with a Redis instance.
type RedisStockCache struct {
	client *redis.Client
}

func NewRedisStockCache(addr, password string, db int) *RedisStockCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStockCache{client: client}
}

func (c *RedisStockCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisStockCache) Close() error {
	return c.client.Close()
}

func (c *RedisStockCache) Get(ctx context.Context, key string) ([]core.StockLevel, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var levels []core.StockLevel
	if err := json.Unmarshal([]byte(val), &levels); err != nil {
		return nil, false, err
	}
	return levels, true, nil
}

func (c *RedisStockCache) Set(ctx context.Context, key string, levels []core.StockLevel, ttl time.Duration) error {
	if levels == nil {
		return nil
	}
	payload, err := json.Marshal(levels)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisStockCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
