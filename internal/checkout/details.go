package checkout

import (
	"strings"
	"time"

	"github.com/citi94/order-coffee/internal/domain"
	"github.com/go-playground/validator/v10"
)

const pickupLayout = "15:04"

var emailValidator = validator.New()

// Details are collected from the customer before an order is placed.
type Details struct {
	CustomerName  string
	CustomerEmail string
	PickupTime    string
	Note          string
}

func (d Details) validate(cart domain.CartSnapshot) error {
	if strings.TrimSpace(d.CustomerName) == "" {
		return domain.NewValidationError("customerName", "please enter your name")
	}
	if strings.TrimSpace(d.PickupTime) == "" {
		return domain.NewValidationError("pickupTime", "please choose a pickup time")
	}
	if _, err := time.Parse(pickupLayout, strings.TrimSpace(d.PickupTime)); err != nil {
		return domain.NewValidationError("pickupTime", "pickup time must be HH:MM")
	}
	if email := strings.TrimSpace(d.CustomerEmail); email != "" {
		if err := emailValidator.Var(email, "email"); err != nil {
			return domain.NewValidationError("customerEmail", "please enter a valid email address")
		}
	}
	if cart.IsEmpty() {
		return domain.NewValidationError("items", "your cart is empty")
	}
	return nil
}

// comment carries the pickup time to the barista, followed by any note.
func (d Details) comment() string {
	c := "Pickup time: " + strings.TrimSpace(d.PickupTime)
	if note := strings.TrimSpace(d.Note); note != "" {
		c += ". " + note
	}
	return c
}

// PickupSlots lists n pickup times step apart, starting at the first step
// boundary not before now.
func PickupSlots(now time.Time, n int, step time.Duration) []string {
	start := now.Truncate(step)
	if start.Before(now) {
		start = start.Add(step)
	}
	slots := make([]string, 0, n)
	for i := 0; i < n; i++ {
		slots = append(slots, start.Add(time.Duration(i)*step).Format(pickupLayout))
	}
	return slots
}
