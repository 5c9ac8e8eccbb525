package http

import (
	"net/http"
	"time"

	"github.com/citi94/order-coffee/internal/api"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Handlers struct {
	Menu    *MenuHandler
	Order   *OrderHandler
	Payment *PaymentHandler
}

func NewRouter(h Handlers, logger zerolog.Logger, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get(api.PathHealth, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get(api.PathMenu, h.Menu.GetMenu)
	r.Post(api.PathCreateOrder, h.Order.CreateOrder)
	r.Post(api.PathInitiatePayment, h.Payment.InitiatePayment)
	r.Post(api.PathCreatePaymentSession, h.Payment.InitiatePayment)
	r.Get(api.PathPaymentStatus, h.Payment.CheckPaymentStatus)
	r.Post(api.PathUpdateOrderStatus, h.Order.UpdateOrderStatus)

	return r
}
