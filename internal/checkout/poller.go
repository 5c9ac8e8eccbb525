package checkout

import (
	"context"
	"time"

	"github.com/citi94/order-coffee/internal/domain"
	"github.com/citi94/order-coffee/internal/storage"
)

// startPolling moves AwaitingPayment to Polling and starts the loop.
// Caller holds o.mu.
func (o *Orchestrator) startPolling(ctx context.Context) *Watch {
	pollCtx, cancel := context.WithCancel(ctx)
	w := newWatch(cancel)
	_ = o.transition(domain.CheckoutStatePolling)

	go o.poll(pollCtx, w, o.paymentID, o.pending)
	return w
}

// poll asks for the payment status once per interval, one request at a
// time, until the payment is settled, the attempt budget runs out, or ctx
// is cancelled. Failed status reads count against the budget.
func (o *Orchestrator) poll(ctx context.Context, w *Watch, paymentID string, pending domain.PendingOrder) {
	defer w.cancel()
	log := o.logger.With().Str("payment_id", paymentID).Logger()

	ticker := time.NewTicker(o.opts.PollInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		state, err := o.backend.PaymentStatus(ctx, paymentID)
		// A settled status wins over a stop that raced with the request.
		switch {
		case err == nil && state.Status == domain.PaymentStatusCompleted:
			w.finish(o.confirm(ctx, paymentID, pending, state))
			return
		case err == nil && state.Status == domain.PaymentStatusFailed:
			w.finish(o.paymentFailed(ctx, paymentID, pending))
			return
		case ctx.Err() != nil:
			w.finish(o.abandon(ctx, paymentID, pending))
			return
		case err != nil:
			log.Warn().Err(err).Int("attempt", attempt).Msg("payment status check failed")
		default:
			log.Debug().Int("attempt", attempt).Msg("payment pending")
		}

		if attempt >= o.opts.MaxAttempts {
			w.finish(o.timedOut(paymentID, pending))
			return
		}

		select {
		case <-ctx.Done():
			w.finish(o.abandon(ctx, paymentID, pending))
			return
		case <-ticker.C:
		}
	}
}

// confirm completes the checkout. It runs to the end even if the watch is
// stopped meanwhile, since the customer has already paid.
func (o *Orchestrator) confirm(ctx context.Context, paymentID string, pending domain.PendingOrder, state domain.PaymentState) Outcome {
	ctx = context.WithoutCancel(ctx)
	if pending.OrderID == "" {
		pending.OrderID = state.OrderID
	}
	if state.OrderNumber != "" {
		pending.OrderNumber = state.OrderNumber
	}
	pending.OrderNumber = domain.DisplayNumber(pending.OrderNumber, pending.OrderID)

	verified := true
	if err := o.backend.ConfirmOrder(ctx, pending.OrderID, paymentID); err != nil {
		verified = false
		o.logger.Warn().Err(err).Str("order_id", pending.OrderID).Msg("order status update failed")
	}

	if err := o.cart.Clear(ctx); err != nil {
		o.logger.Error().Err(err).Msg("failed to clear cart after payment")
	}
	o.persist(ctx, storage.KeyConfirmedOrder, domain.ConfirmedOrder{
		PendingOrder: pending,
		PaymentID:    paymentID,
		Verified:     verified,
		ConfirmedAt:  o.opts.Now().Unix(),
	})
	o.forget(ctx, storage.KeyCurrentPaymentID, storage.KeyPendingOrder)

	o.mu.Lock()
	_ = o.transition(domain.CheckoutStateConfirmed)
	o.mu.Unlock()

	o.logger.Info().Str("order_id", pending.OrderID).Str("payment_id", paymentID).Msg("order confirmed")
	return Outcome{State: domain.CheckoutStateConfirmed, Order: pending, PaymentID: paymentID}
}

// paymentFailed keeps the cart so the customer can try again.
func (o *Orchestrator) paymentFailed(ctx context.Context, paymentID string, pending domain.PendingOrder) Outcome {
	o.forget(context.WithoutCancel(ctx), storage.KeyCurrentPaymentID, storage.KeyPendingOrder)

	o.mu.Lock()
	_ = o.transition(domain.CheckoutStateFailed)
	o.mu.Unlock()

	o.logger.Info().Str("order_id", pending.OrderID).Str("payment_id", paymentID).Msg("payment failed")
	return Outcome{State: domain.CheckoutStateFailed, Order: pending, PaymentID: paymentID}
}

// timedOut leaves the payment markers in place so the payment can still be
// resumed later.
func (o *Orchestrator) timedOut(paymentID string, pending domain.PendingOrder) Outcome {
	o.mu.Lock()
	_ = o.transition(domain.CheckoutStateError)
	o.mu.Unlock()

	o.logger.Error().Str("payment_id", paymentID).Int("attempts", o.opts.MaxAttempts).Msg("payment not confirmed in time")
	return Outcome{State: domain.CheckoutStateError, Order: pending, PaymentID: paymentID, Err: ErrPaymentTimeout}
}

func (o *Orchestrator) abandon(ctx context.Context, paymentID string, pending domain.PendingOrder) Outcome {
	o.mu.Lock()
	_ = o.transition(domain.CheckoutStateAwaitingPayment)
	o.mu.Unlock()

	o.logger.Info().Str("payment_id", paymentID).Msg("payment polling stopped")
	return Outcome{State: domain.CheckoutStateAwaitingPayment, Order: pending, PaymentID: paymentID, Err: ctx.Err()}
}
