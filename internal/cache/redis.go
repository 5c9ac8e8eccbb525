package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/citi94/order-coffee/internal/domain"
	"github.com/redis/go-redis/v9"
)

const defaultMenuTTL = 5 * time.Minute

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	if baseTTL <= 0 {
		baseTTL = defaultMenuTTL
	}
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, shopID string) ([]domain.Product, error) {
	data, err := r.client.Get(ctx, cacheKey(shopID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("unmarshal menu failed: %w", err)
	}
	return products, nil
}

// Set stores the menu with the base TTL plus up to a fifth of it as jitter,
// so several instances do not refetch the catalog at the same moment.
func (r RedisCache) Set(ctx context.Context, shopID string, products []domain.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal menu failed: %w", err)
	}

	jitter := time.Duration(rand.Int64N(int64(r.baseTTL/5) + 1))
	if err := r.client.Set(ctx, cacheKey(shopID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, shopID string) error {
	if err := r.client.Del(ctx, cacheKey(shopID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(shopID string) string {
	return fmt.Sprintf("menu:%s", shopID)
}
