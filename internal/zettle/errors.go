package zettle

import (
	"fmt"
	"net/http"

	"github.com/citi94/order-coffee/internal/domain"
)

// APIError is a non-2xx answer from the vendor. Server-side failures unwrap
// to domain.ErrCollaboratorUnavailable, client errors to domain.ErrRejected.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zettle %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode >= 500,
		e.StatusCode == http.StatusUnauthorized,
		e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode == http.StatusRequestTimeout:
		return domain.ErrCollaboratorUnavailable
	default:
		return domain.ErrRejected
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("zettle %s: %w: %w", op, domain.ErrCollaboratorUnavailable, err)
}

func malformed(op string, err error) error {
	return fmt.Errorf("zettle %s: %w: %v", op, domain.ErrMalformedResponse, err)
}
