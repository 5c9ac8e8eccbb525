package checkout

import "errors"

var (
	ErrIllegalTransition = errors.New("illegal transition of checkout state")
	ErrPaymentTimeout    = errors.New("payment not confirmed in time")
	ErrNoPendingPayment  = errors.New("no pending payment to resume")
	ErrNoConfirmation    = errors.New("no confirmed order")
)
