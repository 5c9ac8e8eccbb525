// Package api holds the JSON bodies exchanged between the kiosk and the
// storefront server.
package api

import "github.com/citi94/order-coffee/internal/domain"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Routes served by the storefront.
const (
	PathMenu                 = "/get-menu"
	PathCreateOrder          = "/create-order"
	PathInitiatePayment      = "/initiate-payment"
	PathCreatePaymentSession = "/create-payment-session"
	PathPaymentStatus        = "/check-payment-status"
	PathUpdateOrderStatus    = "/update-order-status"
	PathHealth               = "/health"
)

type ErrorResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
}

type MenuResponse struct {
	Status   string           `json:"status"`
	Products []domain.Product `json:"products"`
}

type OrderItemDTO struct {
	ID        string            `json:"id" validate:"required"`
	Name      string            `json:"name" validate:"required"`
	Quantity  int               `json:"quantity" validate:"gte=1,lte=99"`
	UnitPrice int64             `json:"unitPrice" validate:"gte=0"`
	Options   map[string]string `json:"options,omitempty"`
}

type CreateOrderRequest struct {
	CustomerName  string         `json:"customerName" validate:"required,max=100"`
	CustomerEmail string         `json:"customerEmail,omitempty" validate:"omitempty,email"`
	Comment       string         `json:"comment,omitempty" validate:"max=500"`
	Items         []OrderItemDTO `json:"items" validate:"required,min=1,dive"`
	TotalAmount   int64          `json:"totalAmount" validate:"gte=0"`
}

type CreateOrderResponse struct {
	Status      string `json:"status"`
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

type InitiatePaymentRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Amount  int64  `json:"amount" validate:"gt=0"`
}

type InitiatePaymentResponse struct {
	Status     string `json:"status"`
	PaymentID  string `json:"paymentId"`
	PaymentURL string `json:"paymentUrl,omitempty"`
}

type PaymentStatusResponse struct {
	Status      domain.PaymentStatus `json:"status"`
	OrderID     string               `json:"orderId"`
	OrderNumber string               `json:"orderNumber"`
}

type UpdateOrderStatusRequest struct {
	OrderID   string `json:"orderId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=COMPLETED PAID"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

func OrderRequestFrom(o domain.Order) CreateOrderRequest {
	req := CreateOrderRequest{
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Comment:       o.Comment,
		Items:         make([]OrderItemDTO, 0, len(o.Items)),
		TotalAmount:   o.TotalAmount,
	}
	for _, item := range o.Items {
		req.Items = append(req.Items, OrderItemDTO(item))
	}
	return req
}

func (r CreateOrderRequest) Order() domain.Order {
	o := domain.Order{
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		Comment:       r.Comment,
		Items:         make([]domain.OrderItem, 0, len(r.Items)),
		TotalAmount:   r.TotalAmount,
	}
	for _, item := range r.Items {
		o.Items = append(o.Items, domain.OrderItem(item))
	}
	return o
}
