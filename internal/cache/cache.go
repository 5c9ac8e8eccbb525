package cache

import (
	"context"
	"errors"

	"github.com/citi94/order-coffee/internal/domain"
)

type MenuCache interface {
	Get(ctx context.Context, shopID string) ([]domain.Product, error)
	Set(ctx context.Context, shopID string, products []domain.Product) error
	Delete(ctx context.Context, shopID string) error
}

var ErrCacheMiss = errors.New("cache miss")
