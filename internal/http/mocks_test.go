package http

import (
	"context"
	"net/http"
	"time"

	"github.com/citi94/order-coffee/internal/domain"
	"github.com/citi94/order-coffee/internal/events"
	"github.com/citi94/order-coffee/internal/zettle"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

type VendorMock struct {
	mock.Mock
}

func (m *VendorMock) Currency() string { return "GBP" }

func (m *VendorMock) CreatePurchase(ctx context.Context, purchase zettle.Purchase) (*zettle.PurchaseResult, error) {
	args := m.Called(ctx, purchase)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*zettle.PurchaseResult), args.Error(1)
}

func (m *VendorMock) GetPurchase(ctx context.Context, purchaseUUID string) (*zettle.PurchaseResult, error) {
	args := m.Called(ctx, purchaseUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*zettle.PurchaseResult), args.Error(1)
}

func (m *VendorMock) CreatePayment(ctx context.Context, purchaseUUID string, amount int64) (*zettle.PaymentResult, error) {
	args := m.Called(ctx, purchaseUUID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*zettle.PaymentResult), args.Error(1)
}

func (m *VendorMock) GetPayment(ctx context.Context, paymentUUID string) (*zettle.Payment, error) {
	args := m.Called(ctx, paymentUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*zettle.Payment), args.Error(1)
}

type EventsMock struct {
	mock.Mock
}

func (m *EventsMock) PublishOrderPaid(ctx context.Context, e events.OrderPaid) error {
	return m.Called(ctx, e).Error(0)
}

type menuStub struct {
	products    []domain.Product
	err         error
	invalidated bool
}

func (s *menuStub) GetMenu(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *menuStub) Invalidate(context.Context) error {
	s.invalidated = true
	return nil
}

func newTestRouter(menu MenuProvider, vendor Vendor, publisher OrderEvents) http.Handler {
	return NewRouter(Handlers{
		Menu:    NewMenuHandler(menu, 5*time.Second),
		Order:   NewOrderHandler(vendor, publisher, 5*time.Second),
		Payment: NewPaymentHandler(vendor, 5*time.Second),
	}, zerolog.Nop(), 10*time.Second)
}
