package menu

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/citi94/order-coffee/internal/cache"
	"github.com/citi94/order-coffee/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls atomic.Int32
	body  string
	err   error
	delay time.Duration
}

func (f *fakeSource) FetchCatalog(ctx context.Context) ([]byte, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func newTestService(t *testing.T, src CatalogSource) (*Service, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewService(src, cache.NewRedisCache(client, time.Minute), "self", zerolog.Nop()), mr
}

const catalog = `{"products":[{"uuid":"p1","name":"Latte","variants":[{"price":{"amount":300}}]}]}`

func TestGetMenu_FetchesThenCaches(t *testing.T) {
	src := &fakeSource{body: catalog}
	svc, mr := newTestService(t, src)
	ctx := context.Background()

	first, err := svc.GetMenu(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists("menu:self"))

	second, err := svc.GetMenu(ctx)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestGetMenu_InvalidateRefetches(t *testing.T) {
	src := &fakeSource{body: catalog}
	svc, _ := newTestService(t, src)
	ctx := context.Background()

	_, err := svc.GetMenu(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.GetMenu(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), src.calls.Load())
}

func TestGetMenu_ConcurrentMissesFetchOnce(t *testing.T) {
	src := &fakeSource{body: catalog, delay: 50 * time.Millisecond}
	svc, _ := newTestService(t, src)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetMenu(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
}

func TestGetMenu_SourceError(t *testing.T) {
	src := &fakeSource{err: domain.ErrCollaboratorUnavailable}
	svc, mr := newTestService(t, src)

	_, err := svc.GetMenu(context.Background())
	assert.ErrorIs(t, err, domain.ErrCollaboratorUnavailable)
	assert.False(t, mr.Exists("menu:self"))
}

func TestGetMenu_MalformedCatalog(t *testing.T) {
	svc, _ := newTestService(t, &fakeSource{body: `{"nothing":true}`})

	_, err := svc.GetMenu(context.Background())
	assert.ErrorIs(t, err, domain.ErrMalformedCatalog)
}

func TestGetMenu_EmptyCatalog(t *testing.T) {
	svc, _ := newTestService(t, &fakeSource{body: `{"products":[{"name":"no id"}]}`})

	_, err := svc.GetMenu(context.Background())
	assert.True(t, errors.Is(err, ErrEmptyCatalog))
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]domain.Product, error) {
	return nil, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, []domain.Product) error {
	return errors.New("connection refused")
}

func (brokenCache) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

func TestGetMenu_CacheDownStillServes(t *testing.T) {
	src := &fakeSource{body: catalog}
	svc := NewService(src, brokenCache{}, "self", zerolog.Nop())

	products, err := svc.GetMenu(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

type gatedSource struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSource) FetchCatalog(ctx context.Context) ([]byte, error) {
	g.calls.Add(1)
	close(g.entered)
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte(catalog), nil
}

func TestGetMenu_CancelledCallerDoesNotCancelSharedFetch(t *testing.T) {
	src := &gatedSource{entered: make(chan struct{}), release: make(chan struct{})}
	svc, mr := newTestService(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := svc.GetMenu(ctx)
		errCh <- err
	}()

	<-src.entered
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(src.release)
	assert.Eventually(t, func() bool { return mr.Exists("menu:self") }, 2*time.Second, 10*time.Millisecond)

	products, err := svc.GetMenu(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, int32(1), src.calls.Load())
}
