package zettle

import (
	"context"
	"net/http"
)

// FetchCatalog returns the raw product list. The menu adapter owns its
// interpretation.
func (c *Client) FetchCatalog(ctx context.Context) ([]byte, error) {
	return c.do(ctx, request{
		op:         "list products",
		method:     http.MethodGet,
		url:        c.cfg.ProductsURL,
		idempotent: true,
	})
}
