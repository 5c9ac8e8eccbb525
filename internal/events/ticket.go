package events

import (
	"fmt"
	"strings"

	"github.com/citi94/order-coffee/internal/domain"
)

// Ticket renders an order for the barista display.
func Ticket(e OrderPaid) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ORDER #%s  %s\n", domain.DisplayNumber(e.OrderNumber, e.OrderID), e.CustomerName)
	if e.Comment != "" {
		fmt.Fprintf(&b, "  %s\n", e.Comment)
	}
	for _, item := range e.Items {
		fmt.Fprintf(&b, "  %dx %s", item.Quantity, item.Name)
		if item.Comment != "" {
			fmt.Fprintf(&b, " (%s)", item.Comment)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
