package menu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citi94/order-coffee/internal/cache"
	"github.com/citi94/order-coffee/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var ErrEmptyCatalog = errors.New("catalog has no products")

// fetchTimeout bounds a shared catalog load, retries included.
const fetchTimeout = 30 * time.Second

// CatalogSource returns the raw vendor catalog.
type CatalogSource interface {
	FetchCatalog(ctx context.Context) ([]byte, error)
}

type Service struct {
	source  CatalogSource
	cache   cache.MenuCache
	adapter *Adapter
	shopID  string
	sfg     singleflight.Group // collapses concurrent misses into one fetch
	logger  zerolog.Logger
}

func NewService(source CatalogSource, c cache.MenuCache, shopID string, logger zerolog.Logger) *Service {
	return &Service{
		source:  source,
		cache:   c,
		adapter: NewAdapter(logger),
		shopID:  shopID,
		logger:  logger,
	}
}

func (s *Service) GetMenu(ctx context.Context) ([]domain.Product, error) {
	ch := s.sfg.DoChan(s.shopID, func() (any, error) {
		// Shared by every waiter: detach from the caller that started it.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		products, err := s.cache.Get(ctx, s.shopID)
		if err == nil {
			return products, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Msg("menu cache get failed")
		}

		raw, err := s.source.FetchCatalog(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch catalog: %w", err)
		}
		products, err = s.adapter.Normalize(raw)
		if err != nil {
			return nil, err
		}
		if len(products) == 0 {
			return nil, ErrEmptyCatalog
		}

		if err := s.cache.Set(ctx, s.shopID, products); err != nil {
			s.logger.Warn().Err(err).Msg("menu cache set failed")
		}
		return products, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.Product), nil
	}
}

// Invalidate drops the cached menu so the next request refetches it.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, s.shopID)
}
