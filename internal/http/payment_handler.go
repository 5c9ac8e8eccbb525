package http

import (
	"context"
	"net/http"
	"time"

	"github.com/citi94/order-coffee/internal/api"
	"github.com/citi94/order-coffee/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type PaymentHandler struct {
	vendor   Vendor
	validate *validator.Validate
	timeout  time.Duration
}

func NewPaymentHandler(vendor Vendor, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		vendor:   vendor,
		validate: newValidator(),
		timeout:  timeout,
	}
}

// InitiatePayment also serves /create-payment-session.
func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req api.InitiatePaymentRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	result, err := h.vendor.CreatePayment(ctx, req.OrderID, req.Amount)
	if err != nil {
		respondVendorError(w, r, err, "failed to initiate payment")
		return
	}

	zerolog.Ctx(ctx).Info().Str("order_id", req.OrderID).Str("payment_id", result.PaymentUUID).Msg("payment initiated")
	respondJSON(w, r, http.StatusOK, api.InitiatePaymentResponse{
		Status:     api.StatusSuccess,
		PaymentID:  result.PaymentUUID,
		PaymentURL: result.PaymentURL,
	})
}

func (h *PaymentHandler) CheckPaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	paymentID := r.URL.Query().Get("paymentId")
	if paymentID == "" {
		respondError(w, r, http.StatusBadRequest, "paymentId is required")
		return
	}

	payment, err := h.vendor.GetPayment(ctx, paymentID)
	if err != nil {
		respondVendorError(w, r, err, "failed to check payment status")
		return
	}

	resp := api.PaymentStatusResponse{
		Status:  payment.MappedStatus(),
		OrderID: payment.PurchaseUUID,
	}
	if resp.Status == domain.PaymentStatusCompleted && resp.OrderID != "" {
		purchase, err := h.vendor.GetPurchase(ctx, resp.OrderID)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("order_id", resp.OrderID).Msg("order number lookup failed")
		} else {
			resp.OrderNumber = purchase.OrderNumber()
		}
	}
	if resp.OrderNumber == "" {
		resp.OrderNumber = domain.DisplayNumber("", resp.OrderID)
	}

	respondJSON(w, r, http.StatusOK, resp)
}
