package checkout

import (
	"context"

	"github.com/citi94/order-coffee/internal/domain"
)

// Outcome is how a payment watch ended.
type Outcome struct {
	State     domain.CheckoutState
	Order     domain.PendingOrder
	PaymentID string
	// Err is ErrPaymentTimeout when the attempt budget ran out, or the
	// context error when the watch was stopped.
	Err error
}

// Watch is a running payment status poll. Stop it to abandon polling; the
// checkout then waits for Resume.
type Watch struct {
	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
}

func newWatch(cancel context.CancelFunc) *Watch {
	return &Watch{cancel: cancel, done: make(chan struct{})}
}

// Stop cancels polling and waits for the loop to exit.
func (w *Watch) Stop() {
	w.cancel()
	<-w.done
}

func (w *Watch) Done() <-chan struct{} {
	return w.done
}

// Wait blocks until the watch ends or ctx is done. A done ctx does not stop
// the watch.
func (w *Watch) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-w.done:
		return w.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (w *Watch) finish(o Outcome) {
	w.outcome = o
	close(w.done)
}
