package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/citi94/order-coffee/internal/domain"
	"github.com/citi94/order-coffee/internal/storage"
	"github.com/rs/zerolog"
)

// Backend is the storefront API as seen by the checkout.
type Backend interface {
	CreateOrder(ctx context.Context, order domain.Order) (domain.OrderReceipt, error)
	InitiatePayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentSession, error)
	PaymentStatus(ctx context.Context, paymentID string) (domain.PaymentState, error)
	ConfirmOrder(ctx context.Context, orderID, paymentID string) error
}

type Cart interface {
	Snapshot() domain.CartSnapshot
	Clear(ctx context.Context) error
}

type Options struct {
	PollInterval time.Duration
	MaxAttempts  int
	Now          func() time.Time
}

func DefaultOptions() Options {
	return Options{
		PollInterval: 3 * time.Second,
		MaxAttempts:  40,
		Now:          time.Now,
	}
}

// Orchestrator drives one checkout at a time from customer details to a
// confirmed, failed or abandoned payment.
type Orchestrator struct {
	cart    Cart
	backend Backend
	store   storage.Store
	opts    Options
	logger  zerolog.Logger

	mu        sync.Mutex
	state     domain.CheckoutState
	pending   domain.PendingOrder
	paymentID string
}

func New(cart Cart, backend Backend, store storage.Store, opts Options, logger zerolog.Logger) *Orchestrator {
	def := DefaultOptions()
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	return &Orchestrator{
		cart:    cart,
		backend: backend,
		store:   store,
		opts:    opts,
		logger:  logger,
		state:   domain.CheckoutStateCollectingDetails,
	}
}

func (o *Orchestrator) State() domain.CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// transition moves to next if the state machine allows it. Caller holds o.mu.
func (o *Orchestrator) transition(next domain.CheckoutState) error {
	if !o.state.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.state, next)
	}
	o.logger.Debug().Str("from", o.state.String()).Str("to", next.String()).Msg("checkout state changed")
	o.state = next
	return nil
}

// Submission is the result of placing an order. Exactly one of RedirectURL
// and Watch is set.
type Submission struct {
	Receipt     domain.OrderReceipt
	PaymentID   string
	RedirectURL string
	Watch       *Watch
}

// Submit validates the details, creates the order and initiates payment.
// Invalid details leave the checkout untouched and contact no one. When the
// payment has no external page, polling starts at once and runs until ctx is
// cancelled or the returned Watch is stopped.
func (o *Orchestrator) Submit(ctx context.Context, d Details) (*Submission, error) {
	o.mu.Lock()
	if o.state != domain.CheckoutStateCollectingDetails {
		state := o.state
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: checkout is %s", ErrIllegalTransition, state)
	}
	snap := o.cart.Snapshot()
	if err := d.validate(snap); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	_ = o.transition(domain.CheckoutStateSubmitting)
	o.mu.Unlock()

	order := domain.OrderFromCart(snap, d.CustomerName, d.CustomerEmail, d.comment())
	receipt, err := o.backend.CreateOrder(ctx, order)
	if err == nil && receipt.OrderID == "" {
		err = fmt.Errorf("%w: order created without id", domain.ErrMalformedResponse)
	}
	if err != nil {
		return nil, o.fail("create order", err)
	}

	pending := domain.PendingOrder{
		OrderID:      receipt.OrderID,
		OrderNumber:  domain.DisplayNumber(receipt.OrderNumber, receipt.OrderID),
		CustomerName: d.CustomerName,
		PickupTime:   d.PickupTime,
		TotalAmount:  order.TotalAmount,
	}
	o.mu.Lock()
	o.pending = pending
	_ = o.transition(domain.CheckoutStateAwaitingPayment)
	o.mu.Unlock()
	o.persist(ctx, storage.KeyPendingOrder, pending)

	session, err := o.backend.InitiatePayment(ctx, domain.PaymentRequest{OrderID: receipt.OrderID, Amount: order.TotalAmount})
	if err == nil && session.PaymentID == "" {
		err = fmt.Errorf("%w: payment initiated without id", domain.ErrMalformedResponse)
	}
	if err != nil {
		return nil, o.fail("initiate payment", err)
	}
	o.persist(ctx, storage.KeyCurrentPaymentID, session.PaymentID)

	sub := &Submission{Receipt: receipt, PaymentID: session.PaymentID, RedirectURL: session.PaymentURL}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.paymentID = session.PaymentID
	if session.PaymentURL != "" {
		o.logger.Info().Str("order_id", receipt.OrderID).Msg("payment continues on external page")
		return sub, nil
	}
	sub.Watch = o.startPolling(ctx)
	return sub, nil
}

// Resume polls the payment recorded by an earlier Submit, possibly made by a
// previous run of the kiosk.
func (o *Orchestrator) Resume(ctx context.Context) (*Watch, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != domain.CheckoutStateCollectingDetails && o.state != domain.CheckoutStateAwaitingPayment {
		return nil, fmt.Errorf("%w: cannot resume while %s", ErrIllegalTransition, o.state)
	}

	if o.paymentID == "" {
		var paymentID string
		err := storage.GetJSON(ctx, o.store, storage.KeyCurrentPaymentID, &paymentID)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && paymentID == "") {
			return nil, ErrNoPendingPayment
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load pending payment: %w", err)
		}
		o.paymentID = paymentID

		var pending domain.PendingOrder
		if err := storage.GetJSON(ctx, o.store, storage.KeyPendingOrder, &pending); err != nil {
			o.logger.Warn().Err(err).Msg("pending order details unavailable")
		}
		o.pending = pending
	}

	if o.state == domain.CheckoutStateCollectingDetails {
		_ = o.transition(domain.CheckoutStateAwaitingPayment)
	}
	return o.startPolling(ctx), nil
}

// Restart begins a new checkout after a terminal state.
func (o *Orchestrator) Restart() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.transition(domain.CheckoutStateCollectingDetails); err != nil {
		return err
	}
	o.pending = domain.PendingOrder{}
	o.paymentID = ""
	return nil
}

// ConsumeConfirmation returns the last confirmed order and forgets it.
func (o *Orchestrator) ConsumeConfirmation(ctx context.Context) (domain.ConfirmedOrder, error) {
	var confirmed domain.ConfirmedOrder
	err := storage.GetJSON(ctx, o.store, storage.KeyConfirmedOrder, &confirmed)
	if errors.Is(err, storage.ErrNotFound) {
		return confirmed, ErrNoConfirmation
	}
	if err != nil {
		return confirmed, err
	}
	if err := o.store.Delete(ctx, storage.KeyConfirmedOrder); err != nil {
		o.logger.Warn().Err(err).Msg("failed to clear confirmed order")
	}
	return confirmed, nil
}

// fail records a collaborator failure. The cause is logged; the returned
// error keeps it for classification by UserMessage.
func (o *Orchestrator) fail(op string, err error) error {
	o.logger.Error().Err(err).Str("op", op).Msg("checkout failed")

	o.mu.Lock()
	defer o.mu.Unlock()
	_ = o.transition(domain.CheckoutStateError)
	return fmt.Errorf("%s: %w", op, err)
}

func (o *Orchestrator) persist(ctx context.Context, key string, v any) {
	if err := storage.SetJSON(ctx, o.store, key, v); err != nil {
		o.logger.Warn().Err(err).Str("key", key).Msg("failed to persist checkout state")
	}
}

func (o *Orchestrator) forget(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := o.store.Delete(ctx, key); err != nil {
			o.logger.Warn().Err(err).Str("key", key).Msg("failed to clear checkout state")
		}
	}
}
