// Package zettle is the client for the Zettle OAuth, product and purchase
// APIs used by the storefront.
package zettle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/citi94/order-coffee/internal/domain"
	"github.com/citi94/order-coffee/pkg/circuitbreaker"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const maxBodySize = 4 << 20

// Vendor endpoints. The purchase and payment calls are pinned to the
// purchases v2 contract; nothing probes for alternatives at request time.
const (
	DefaultOAuthURL    = "https://oauth.zettle.com/token"
	DefaultProductsURL = "https://products.izettle.com/organizations/self/products/v2"
	DefaultPurchaseURL = "https://purchase.izettle.com/purchases/v2"
	DefaultCurrency    = "GBP"
)

type Config struct {
	ClientID     string
	ClientSecret string
	OAuthURL     string
	ProductsURL  string
	PurchaseURL  string
	Currency     string
	// RedirectURL is where a hosted payment page sends the payer back to.
	RedirectURL string

	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
	RetryBackoff      time.Duration
	Breaker           circuitbreaker.Options
}

func (c *Config) setDefaults() {
	if c.OAuthURL == "" {
		c.OAuthURL = DefaultOAuthURL
	}
	if c.ProductsURL == "" {
		c.ProductsURL = DefaultProductsURL
	}
	if c.PurchaseURL == "" {
		c.PurchaseURL = DefaultPurchaseURL
	}
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 10
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 200 * time.Millisecond
	}
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	tokens     *tokenSource
	breaker    *circuitbreaker.Breaker
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("zettle client id and secret are required")
	}
	cfg.setDefaults()

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	breakerOpts := cfg.Breaker
	breakerOpts.IsFailure = func(err error) bool {
		return errors.Is(err, domain.ErrCollaboratorUnavailable)
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		tokens: &tokenSource{
			httpClient: httpClient,
			url:        cfg.OAuthURL,
			clientID:   cfg.ClientID,
			assertion:  cfg.ClientSecret,
			now:        time.Now,
		},
		breaker: circuitbreaker.New("zettle", breakerOpts, logger),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1),
		logger:  logger,
	}, nil
}

func (c *Client) Currency() string {
	return c.cfg.Currency
}

type request struct {
	op         string
	method     string
	url        string
	body       any
	idempotent bool
}

// do sends an authenticated JSON request. Idempotent requests are retried
// with exponential backoff while the vendor is unavailable.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	var payload []byte
	if r.body != nil {
		var err error
		if payload, err = json.Marshal(r.body); err != nil {
			return nil, fmt.Errorf("marshal %s request failed: %w", r.op, err)
		}
	}

	attempts := 1
	if r.idempotent {
		attempts += c.cfg.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff(c.cfg.RetryBackoff, attempt)); err != nil {
				return nil, lastErr
			}
			c.logger.Debug().Str("op", r.op).Int("attempt", attempt+1).Err(lastErr).Msg("retrying zettle request")
		}

		body, err := c.breaker.Execute(func() ([]byte, error) {
			return c.send(ctx, r, payload)
		})
		if err == nil {
			return body, nil
		}
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return nil, unavailable(r.op, err)
		}
		lastErr = err
		if !errors.Is(err, domain.ErrCollaboratorUnavailable) {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) send(ctx context.Context, r request, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, unavailable(r.op, err)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request failed: %w", r.op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unavailable(r.op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, unavailable(r.op, err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Op: r.op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func backoff(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	return d + time.Duration(rand.Int64N(int64(d)/2+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
