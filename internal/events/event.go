package events

import "time"

const (
	DefaultTopic       = "coffee-orders"
	EventTypeOrderPaid = "order.paid"
)

// OrderPaid is published once a payment is confirmed, for the barista display.
type OrderPaid struct {
	OrderID      string       `json:"order_id"`
	OrderNumber  string       `json:"order_number"`
	PaymentID    string       `json:"payment_id"`
	CustomerName string       `json:"customer_name"`
	Comment      string       `json:"comment,omitempty"`
	Items        []TicketItem `json:"items"`
	PaidAt       time.Time    `json:"paid_at"`
}

type TicketItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Comment  string `json:"comment,omitempty"`
}
