package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Order is the submission payload sent to the storefront API.
type Order struct {
	CustomerName  string      `json:"customerName"`
	CustomerEmail string      `json:"customerEmail,omitempty"`
	Comment       string      `json:"comment,omitempty"`
	Items         []OrderItem `json:"items"`
	TotalAmount   int64       `json:"totalAmount"`
}

type OrderItem struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Quantity  int               `json:"quantity"`
	UnitPrice int64             `json:"unitPrice"`
	Options   map[string]string `json:"options,omitempty"`
}

// OrderFromCart builds an order from a cart snapshot. The snapshot is copied.
func OrderFromCart(snap CartSnapshot, customerName, customerEmail, comment string) Order {
	order := Order{
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		Comment:       comment,
		Items:         make([]OrderItem, 0, len(snap.Items)),
		TotalAmount:   snap.TotalAmount,
	}
	for _, item := range snap.Items {
		item = item.Clone()
		order.Items = append(order.Items, OrderItem{
			ID:        item.ProductID,
			Name:      item.DisplayName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Options:   item.Options,
		})
	}
	return order
}

// ItemsTotal sums unitPrice times quantity over the order items.
func (o Order) ItemsTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// OptionsComment renders options as "name: value" pairs sorted by name.
func OptionsComment(opts map[string]string) string {
	opts = NormalizeOptions(opts)
	if len(opts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(opts))
	for name, value := range opts {
		parts = append(parts, fmt.Sprintf("%s: %s", name, value))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

// OrderReceipt is what the storefront returns for a created order.
type OrderReceipt struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

// PendingOrder is persisted between order creation and payment confirmation.
type PendingOrder struct {
	OrderID      string `json:"orderId"`
	OrderNumber  string `json:"orderNumber"`
	CustomerName string `json:"customerName"`
	PickupTime   string `json:"pickupTime"`
	TotalAmount  int64  `json:"totalAmount"`
}

// ConfirmedOrder is persisted once payment completes and read once by the
// confirmation view.
type ConfirmedOrder struct {
	PendingOrder
	PaymentID   string `json:"paymentId"`
	Verified    bool   `json:"verified"`
	ConfirmedAt int64  `json:"confirmedAt"`
}

// DisplayNumber returns the order number, falling back to the tail of the id.
func DisplayNumber(orderNumber, orderID string) string {
	if orderNumber != "" {
		return orderNumber
	}
	if len(orderID) > 6 {
		return orderID[len(orderID)-6:]
	}
	return orderID
}
