package http

import (
	"context"
	"net/http"
	"time"

	"github.com/citi94/order-coffee/internal/api"
	"github.com/citi94/order-coffee/internal/domain"
	"github.com/citi94/order-coffee/internal/events"
	"github.com/citi94/order-coffee/internal/zettle"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Vendor is the part of the Zettle client the handlers use.
type Vendor interface {
	Currency() string
	CreatePurchase(ctx context.Context, purchase zettle.Purchase) (*zettle.PurchaseResult, error)
	GetPurchase(ctx context.Context, purchaseUUID string) (*zettle.PurchaseResult, error)
	CreatePayment(ctx context.Context, purchaseUUID string, amount int64) (*zettle.PaymentResult, error)
	GetPayment(ctx context.Context, paymentUUID string) (*zettle.Payment, error)
}

type OrderEvents interface {
	PublishOrderPaid(ctx context.Context, e events.OrderPaid) error
}

type OrderHandler struct {
	vendor   Vendor
	events   OrderEvents
	validate *validator.Validate
	timeout  time.Duration
	now      func() time.Time
}

func NewOrderHandler(vendor Vendor, publisher OrderEvents, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		vendor:   vendor,
		events:   publisher,
		validate: newValidator(),
		timeout:  timeout,
		now:      time.Now,
	}
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req api.CreateOrderRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	order := req.Order()
	if order.ItemsTotal() != order.TotalAmount {
		respondError(w, r, http.StatusBadRequest, "totalAmount does not match items")
		return
	}

	result, err := h.vendor.CreatePurchase(ctx, zettle.NewPurchase(order, h.vendor.Currency()))
	if err != nil {
		respondVendorError(w, r, err, "failed to create order")
		return
	}

	zerolog.Ctx(ctx).Info().Str("order_id", result.PurchaseUUID).Int64("amount", order.TotalAmount).Msg("order created")
	respondJSON(w, r, http.StatusOK, api.CreateOrderResponse{
		Status:      api.StatusSuccess,
		OrderID:     result.PurchaseUUID,
		OrderNumber: result.OrderNumber(),
	})
}

// UpdateOrderStatus confirms an order once its payment is verified as paid
// with the vendor, then announces it to the bar.
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req api.UpdateOrderStatusRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	payment, err := h.vendor.GetPayment(ctx, req.PaymentID)
	if err != nil {
		respondVendorError(w, r, err, "failed to verify payment")
		return
	}
	if payment.PurchaseUUID != req.OrderID {
		respondError(w, r, http.StatusBadRequest, "payment does not belong to this order")
		return
	}
	if payment.MappedStatus() != domain.PaymentStatusCompleted {
		respondJSON(w, r, http.StatusBadRequest, api.ErrorResponse{
			Status:        api.StatusError,
			Message:       "Payment not confirmed",
			PaymentStatus: payment.Status,
		})
		return
	}

	event := events.OrderPaid{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		PaidAt:    h.now().UTC(),
	}
	if purchase, err := h.vendor.GetPurchase(ctx, req.OrderID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("order_id", req.OrderID).Msg("order details unavailable for ticket")
	} else {
		event.OrderNumber = purchase.OrderNumber()
		event.CustomerName = purchase.Metadata.CustomerName
		event.Comment = purchase.Metadata.OrderComment
		for _, p := range purchase.Products {
			event.Items = append(event.Items, events.TicketItem{Name: p.Name, Quantity: p.Quantity, Comment: p.Comment})
		}
	}

	if err := h.events.PublishOrderPaid(ctx, event); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("order_id", req.OrderID).Msg("failed to publish order paid event")
		respondError(w, r, http.StatusInternalServerError, "order could not be sent to the bar")
		return
	}

	respondJSON(w, r, http.StatusOK, api.StatusResponse{Status: api.StatusSuccess})
}
