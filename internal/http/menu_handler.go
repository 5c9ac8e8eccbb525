package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/citi94/order-coffee/internal/api"
	"github.com/citi94/order-coffee/internal/domain"
	"github.com/citi94/order-coffee/internal/menu"
	"github.com/rs/zerolog"
)

type MenuProvider interface {
	GetMenu(ctx context.Context) ([]domain.Product, error)
	Invalidate(ctx context.Context) error
}

type MenuHandler struct {
	menu    MenuProvider
	timeout time.Duration
}

func NewMenuHandler(provider MenuProvider, timeout time.Duration) *MenuHandler {
	return &MenuHandler{
		menu:    provider,
		timeout: timeout,
	}
}

// GetMenu serves the normalized catalog. ?refresh=true drops the cached copy
// first.
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if r.URL.Query().Get("refresh") == "true" {
		if err := h.menu.Invalidate(ctx); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to invalidate menu cache")
		}
	}

	products, err := h.menu.GetMenu(ctx)
	if err != nil {
		message := "could not load the menu, please try again"
		if errors.Is(err, menu.ErrEmptyCatalog) {
			message = "no products are available right now"
		}
		zerolog.Ctx(ctx).Error().Err(err).Msg("get menu failed")
		respondError(w, r, http.StatusInternalServerError, message)
		return
	}

	respondJSON(w, r, http.StatusOK, api.MenuResponse{Status: api.StatusSuccess, Products: products})
}
