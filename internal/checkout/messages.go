package checkout

import (
	"errors"

	"github.com/citi94/order-coffee/internal/cart"
	"github.com/citi94/order-coffee/internal/domain"
)

// UserMessage turns an error into text fit for the customer. Diagnostics
// stay in the logs.
func UserMessage(err error) string {
	var ve *domain.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, ErrPaymentTimeout):
		return "We couldn't confirm your payment in time. If you were charged, please speak to a member of staff."
	case errors.Is(err, ErrIllegalTransition):
		return "A checkout is already in progress."
	case errors.Is(err, ErrNoPendingPayment):
		return "There is no payment waiting to be confirmed."
	case errors.Is(err, cart.ErrInvalidIndex):
		return "That item is not in your cart."
	case errors.Is(err, cart.ErrInvalidQuantity):
		return "Quantity must be at least 1."
	case errors.Is(err, domain.ErrMalformedCatalog):
		return "The menu is unavailable right now. Please try again shortly."
	case errors.Is(err, domain.ErrRejected):
		return "Your order could not be accepted. Please check it and try again."
	case errors.Is(err, domain.ErrCollaboratorUnavailable), errors.Is(err, domain.ErrMalformedResponse):
		return "We couldn't reach the shop right now. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// OutcomeMessage describes how a payment watch ended.
func OutcomeMessage(o Outcome) string {
	switch o.State {
	case domain.CheckoutStateConfirmed:
		return "Thank you! Your order #" + o.Order.OrderNumber + " is confirmed."
	case domain.CheckoutStateFailed:
		return "Your payment was not completed. Your cart has been kept so you can try again."
	case domain.CheckoutStateAwaitingPayment:
		return "Still waiting for your payment. You can check again later."
	default:
		return UserMessage(o.Err)
	}
}
