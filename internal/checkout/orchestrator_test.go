package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/citi94/order-coffee/internal/cart"
	"github.com/citi94/order-coffee/internal/domain"
	"github.com/citi94/order-coffee/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu         sync.Mutex
	orders     []domain.Order
	payments   []domain.PaymentRequest
	polls      int
	confirmed  []string
	receipt    domain.OrderReceipt
	session    domain.PaymentSession
	statuses   []domain.PaymentStatus
	createErr  error
	paymentErr error
	statusErr  error
	confirmErr error
	// onStatus runs inside PaymentStatus after the context check.
	onStatus func()
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		receipt: domain.OrderReceipt{OrderID: "order-123456", OrderNumber: "42"},
		session: domain.PaymentSession{PaymentID: "pay-1"},
	}
}

func (f *fakeBackend) CreateOrder(_ context.Context, order domain.Order) (domain.OrderReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, order)
	return f.receipt, f.createErr
}

func (f *fakeBackend) InitiatePayment(_ context.Context, req domain.PaymentRequest) (domain.PaymentSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = append(f.payments, req)
	return f.session, f.paymentErr
}

func (f *fakeBackend) PaymentStatus(ctx context.Context, paymentID string) (domain.PaymentState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if err := ctx.Err(); err != nil {
		return domain.PaymentState{}, err
	}
	if f.onStatus != nil {
		f.onStatus()
	}
	if f.statusErr != nil {
		return domain.PaymentState{}, f.statusErr
	}
	status := domain.PaymentStatusPending
	if len(f.statuses) > 0 {
		status = f.statuses[0]
		if len(f.statuses) > 1 {
			f.statuses = f.statuses[1:]
		}
	}
	return domain.PaymentState{Status: status, OrderID: f.receipt.OrderID}, nil
}

func (f *fakeBackend) ConfirmOrder(_ context.Context, orderID, paymentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, orderID+"/"+paymentID)
	return f.confirmErr
}

func (f *fakeBackend) calls() (orders, payments, polls, confirms int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders), len(f.payments), f.polls, len(f.confirmed)
}

type fixture struct {
	orch    *Orchestrator
	backend *fakeBackend
	cart    *cart.Store
	store   *storage.MemoryStore
}

func newFixture(t *testing.T, maxAttempts int) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	c, err := cart.NewStore(ctx, mem, zerolog.Nop())
	require.NoError(t, err)
	_, err = c.AddItem(ctx, domain.LineItem{ProductID: "p1", DisplayName: "Latte", UnitPrice: 300, Quantity: 2})
	require.NoError(t, err)

	backend := newFakeBackend()
	opts := Options{
		PollInterval: time.Millisecond,
		MaxAttempts:  maxAttempts,
		Now:          func() time.Time { return time.Unix(1700000000, 0) },
	}
	return &fixture{
		orch:    New(c, backend, mem, opts, zerolog.Nop()),
		backend: backend,
		cart:    c,
		store:   mem,
	}
}

func validDetails() Details {
	return Details{CustomerName: "Alice", PickupTime: "08:30", Note: "extra hot"}
}

func waitOutcome(t *testing.T, w *Watch) Outcome {
	t.Helper()
	require.NotNil(t, w)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := w.Wait(ctx)
	require.NoError(t, err)
	return out
}

func TestSubmit_InvalidDetailsContactNoOne(t *testing.T) {
	tests := []struct {
		name    string
		details Details
		field   string
	}{
		{"missing name", Details{PickupTime: "08:30"}, "customerName"},
		{"blank name", Details{CustomerName: "  ", PickupTime: "08:30"}, "customerName"},
		{"missing pickup", Details{CustomerName: "Alice"}, "pickupTime"},
		{"bad pickup", Details{CustomerName: "Alice", PickupTime: "half eight"}, "pickupTime"},
		{"bad email", Details{CustomerName: "Alice", PickupTime: "08:30", CustomerEmail: "nope"}, "customerEmail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 3)

			sub, err := f.orch.Submit(context.Background(), tt.details)
			require.Error(t, err)
			assert.Nil(t, sub)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, domain.CheckoutStateCollectingDetails, f.orch.State())

			orders, payments, polls, _ := f.backend.calls()
			assert.Zero(t, orders+payments+polls)
		})
	}
}

func TestSubmit_EmptyCart(t *testing.T) {
	f := newFixture(t, 3)
	require.NoError(t, f.cart.Clear(context.Background()))

	_, err := f.orch.Submit(context.Background(), validDetails())

	assert.True(t, domain.IsValidation(err))
	orders, _, _, _ := f.backend.calls()
	assert.Zero(t, orders)
}

func TestSubmit_PaymentCompleted(t *testing.T) {
	f := newFixture(t, 10)
	f.backend.statuses = []domain.PaymentStatus{domain.PaymentStatusPending, domain.PaymentStatusCompleted}
	ctx := context.Background()

	sub, err := f.orch.Submit(ctx, validDetails())
	require.NoError(t, err)
	assert.Equal(t, "order-123456", sub.Receipt.OrderID)
	assert.Empty(t, sub.RedirectURL)

	out := waitOutcome(t, sub.Watch)
	assert.Equal(t, domain.CheckoutStateConfirmed, out.State)
	assert.NoError(t, out.Err)
	assert.Equal(t, "42", out.Order.OrderNumber)
	assert.Equal(t, domain.CheckoutStateConfirmed, f.orch.State())

	assert.True(t, f.cart.Snapshot().IsEmpty())

	require.Len(t, f.backend.orders, 1)
	order := f.backend.orders[0]
	assert.Equal(t, "Alice", order.CustomerName)
	assert.Equal(t, "Pickup time: 08:30. extra hot", order.Comment)
	assert.Equal(t, int64(600), order.TotalAmount)
	assert.Equal(t, []domain.PaymentRequest{{OrderID: "order-123456", Amount: 600}}, f.backend.payments)
	assert.Equal(t, []string{"order-123456/pay-1"}, f.backend.confirmed)

	_, err = f.store.Get(ctx, storage.KeyCurrentPaymentID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.store.Get(ctx, storage.KeyPendingOrder)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	confirmed, err := f.orch.ConsumeConfirmation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pay-1", confirmed.PaymentID)
	assert.True(t, confirmed.Verified)
	assert.Equal(t, int64(1700000000), confirmed.ConfirmedAt)
	assert.Equal(t, "Alice", confirmed.CustomerName)

	_, err = f.orch.ConsumeConfirmation(ctx)
	assert.ErrorIs(t, err, ErrNoConfirmation)
}

func TestSubmit_ConfirmOrderFailureStillConfirms(t *testing.T) {
	f := newFixture(t, 10)
	f.backend.statuses = []domain.PaymentStatus{domain.PaymentStatusCompleted}
	f.backend.confirmErr = domain.ErrCollaboratorUnavailable

	sub, err := f.orch.Submit(context.Background(), validDetails())
	require.NoError(t, err)

	out := waitOutcome(t, sub.Watch)
	assert.Equal(t, domain.CheckoutStateConfirmed, out.State)

	confirmed, err := f.orch.ConsumeConfirmation(context.Background())
	require.NoError(t, err)
	assert.False(t, confirmed.Verified)
}

func TestSubmit_PaymentFailedKeepsCart(t *testing.T) {
	f := newFixture(t, 10)
	f.backend.statuses = []domain.PaymentStatus{domain.PaymentStatusFailed}
	ctx := context.Background()

	sub, err := f.orch.Submit(ctx, validDetails())
	require.NoError(t, err)

	out := waitOutcome(t, sub.Watch)
	assert.Equal(t, domain.CheckoutStateFailed, out.State)
	assert.Equal(t, domain.CheckoutStateFailed, f.orch.State())
	assert.Equal(t, 2, f.cart.Snapshot().TotalItems)

	_, err = f.store.Get(ctx, storage.KeyCurrentPaymentID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, _, _, confirms := f.backend.calls()
	assert.Zero(t, confirms)

	require.NoError(t, f.orch.Restart())
	assert.Equal(t, domain.CheckoutStateCollectingDetails, f.orch.State())
}

func TestSubmit_PollingTimesOut(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	sub, err := f.orch.Submit(ctx, validDetails())
	require.NoError(t, err)

	out := waitOutcome(t, sub.Watch)
	assert.Equal(t, domain.CheckoutStateError, out.State)
	assert.ErrorIs(t, out.Err, ErrPaymentTimeout)

	_, _, polls, _ := f.backend.calls()
	assert.Equal(t, 3, polls)
	assert.Equal(t, 2, f.cart.Snapshot().TotalItems)

	var paymentID string
	require.NoError(t, storage.GetJSON(ctx, f.store, storage.KeyCurrentPaymentID, &paymentID))
	assert.Equal(t, "pay-1", paymentID)
}

func TestSubmit_StatusErrorsCountAsAttempts(t *testing.T) {
	f := newFixture(t, 4)
	f.backend.statusErr = domain.ErrCollaboratorUnavailable

	sub, err := f.orch.Submit(context.Background(), validDetails())
	require.NoError(t, err)

	out := waitOutcome(t, sub.Watch)
	assert.ErrorIs(t, out.Err, ErrPaymentTimeout)
	_, _, polls, _ := f.backend.calls()
	assert.Equal(t, 4, polls)
}

func TestWatch_StopReturnsToAwaitingPayment(t *testing.T) {
	f := newFixture(t, 1000)
	f.orch.opts.PollInterval = time.Hour

	sub, err := f.orch.Submit(context.Background(), validDetails())
	require.NoError(t, err)

	sub.Watch.Stop()
	out := waitOutcome(t, sub.Watch)
	assert.Equal(t, domain.CheckoutStateAwaitingPayment, out.State)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Equal(t, domain.CheckoutStateAwaitingPayment, f.orch.State())

	f.orch.opts.PollInterval = time.Millisecond
	f.backend.statuses = []domain.PaymentStatus{domain.PaymentStatusCompleted}
	w, err := f.orch.Resume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStateConfirmed, waitOutcome(t, w).State)
}

func TestWatch_CompletedStatusWinsOverConcurrentStop(t *testing.T) {
	f := newFixture(t, 10)
	f.backend.statuses = []domain.PaymentStatus{domain.PaymentStatusCompleted}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.backend.onStatus = cancel

	sub, err := f.orch.Submit(ctx, validDetails())
	require.NoError(t, err)

	out := waitOutcome(t, sub.Watch)
	assert.Equal(t, domain.CheckoutStateConfirmed, out.State)
	assert.NoError(t, out.Err)
	assert.True(t, f.cart.Snapshot().IsEmpty())
	_, _, _, confirms := f.backend.calls()
	assert.Equal(t, 1, confirms)
}

func TestSubmit_RedirectThenResumeAfterRestart(t *testing.T) {
	f := newFixture(t, 10)
	f.backend.session.PaymentURL = "https://pay.example.com/p/1"
	ctx := context.Background()

	sub, err := f.orch.Submit(ctx, validDetails())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/p/1", sub.RedirectURL)
	assert.Nil(t, sub.Watch)
	assert.Equal(t, domain.CheckoutStateAwaitingPayment, f.orch.State())
	_, _, polls, _ := f.backend.calls()
	assert.Zero(t, polls)

	// A fresh orchestrator over the same storage, as after a kiosk restart.
	f.backend.statuses = []domain.PaymentStatus{domain.PaymentStatusCompleted}
	restarted := New(f.cart, f.backend, f.store, f.orch.opts, zerolog.Nop())
	w, err := restarted.Resume(ctx)
	require.NoError(t, err)

	out := waitOutcome(t, w)
	assert.Equal(t, domain.CheckoutStateConfirmed, out.State)
	assert.Equal(t, "order-123456", out.Order.OrderID)
	assert.Equal(t, "Alice", out.Order.CustomerName)
	assert.True(t, f.cart.Snapshot().IsEmpty())
}

func TestResume_NothingPending(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.orch.Resume(context.Background())
	assert.ErrorIs(t, err, ErrNoPendingPayment)
	assert.Equal(t, domain.CheckoutStateCollectingDetails, f.orch.State())
}

func TestSubmit_CreateOrderFails(t *testing.T) {
	f := newFixture(t, 3)
	f.backend.createErr = domain.ErrRejected

	sub, err := f.orch.Submit(context.Background(), validDetails())
	assert.Nil(t, sub)
	assert.ErrorIs(t, err, domain.ErrRejected)
	assert.Equal(t, domain.CheckoutStateError, f.orch.State())

	_, payments, _, _ := f.backend.calls()
	assert.Zero(t, payments)
	assert.Equal(t, 2, f.cart.Snapshot().TotalItems)

	require.NoError(t, f.orch.Restart())
	_, err = f.orch.Submit(context.Background(), validDetails())
	assert.Error(t, err)
}

func TestSubmit_MissingOrderID(t *testing.T) {
	f := newFixture(t, 3)
	f.backend.receipt = domain.OrderReceipt{}

	_, err := f.orch.Submit(context.Background(), validDetails())
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	assert.Equal(t, domain.CheckoutStateError, f.orch.State())

	_, payments, _, _ := f.backend.calls()
	assert.Zero(t, payments)
}

func TestSubmit_InitiatePaymentFailsKeepsPendingOrder(t *testing.T) {
	f := newFixture(t, 3)
	f.backend.paymentErr = errors.New("boom")
	ctx := context.Background()

	_, err := f.orch.Submit(ctx, validDetails())
	require.Error(t, err)
	assert.Equal(t, domain.CheckoutStateError, f.orch.State())

	var pending domain.PendingOrder
	require.NoError(t, storage.GetJSON(ctx, f.store, storage.KeyPendingOrder, &pending))
	assert.Equal(t, "order-123456", pending.OrderID)
	_, err = f.store.Get(ctx, storage.KeyCurrentPaymentID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSubmit_RejectsWhileInProgress(t *testing.T) {
	f := newFixture(t, 1000)
	f.orch.opts.PollInterval = time.Hour

	sub, err := f.orch.Submit(context.Background(), validDetails())
	require.NoError(t, err)
	defer sub.Watch.Stop()

	_, err = f.orch.Submit(context.Background(), validDetails())
	assert.ErrorIs(t, err, ErrIllegalTransition)
	_, err = f.orch.Resume(context.Background())
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.ErrorIs(t, f.orch.Restart(), ErrIllegalTransition)
}

func TestPickupSlots(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 7, 0, 0, time.UTC)

	assert.Equal(t, []string{"08:15", "08:30", "08:45"}, PickupSlots(now, 3, 15*time.Minute))

	onBoundary := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"09:00", "09:10"}, PickupSlots(onBoundary, 2, 10*time.Minute))
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "please enter your name", UserMessage(domain.NewValidationError("customerName", "please enter your name")))
	assert.Contains(t, UserMessage(ErrPaymentTimeout), "couldn't confirm your payment")
	assert.Contains(t, UserMessage(errors.Join(errors.New("create order"), domain.ErrCollaboratorUnavailable)), "couldn't reach the shop")
	assert.Contains(t, UserMessage(domain.ErrRejected), "could not be accepted")
	assert.Equal(t, "That item is not in your cart.", UserMessage(cart.ErrInvalidIndex))
	assert.Equal(t, "Something went wrong. Please try again.", UserMessage(errors.New("x")))

	assert.Contains(t, OutcomeMessage(Outcome{State: domain.CheckoutStateConfirmed, Order: domain.PendingOrder{OrderNumber: "42"}}), "#42")
}
