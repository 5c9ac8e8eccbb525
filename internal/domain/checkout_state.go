package domain

type CheckoutState string

const (
	CheckoutStateCollectingDetails CheckoutState = "COLLECTING_DETAILS"
	CheckoutStateSubmitting        CheckoutState = "SUBMITTING"
	CheckoutStateAwaitingPayment   CheckoutState = "AWAITING_PAYMENT"
	CheckoutStatePolling           CheckoutState = "POLLING"
	CheckoutStateConfirmed         CheckoutState = "CONFIRMED"
	CheckoutStateFailed            CheckoutState = "FAILED"
	CheckoutStateError             CheckoutState = "ERROR"
)

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateConfirmed || s == CheckoutStateFailed || s == CheckoutStateError
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	CheckoutStateCollectingDetails: {CheckoutStateSubmitting, CheckoutStateAwaitingPayment},
	CheckoutStateSubmitting:        {CheckoutStateAwaitingPayment, CheckoutStateError},
	CheckoutStateAwaitingPayment:   {CheckoutStatePolling, CheckoutStateError},
	CheckoutStatePolling:           {CheckoutStateConfirmed, CheckoutStateFailed, CheckoutStateError, CheckoutStateAwaitingPayment},
	CheckoutStateConfirmed:         {CheckoutStateCollectingDetails},
	CheckoutStateFailed:            {CheckoutStateCollectingDetails},
	CheckoutStateError:             {CheckoutStateCollectingDetails},
}

// CanTransitionTo reports whether the checkout may move from s to next.
// CollectingDetails may jump to AwaitingPayment when resuming a persisted
// payment, and Polling falls back to AwaitingPayment when cancelled.
func (s CheckoutState) CanTransitionTo(next CheckoutState) bool {
	for _, allowed := range checkoutTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
