package domain

import (
	"encoding/json"
	"maps"
	"sort"
	"strings"
)

// LineItem is one entry of the cart. UnitPrice is in pence.
type LineItem struct {
	ProductID   string            `json:"id"`
	VariantID   string            `json:"variantId,omitempty"`
	DisplayName string            `json:"name"`
	UnitPrice   int64             `json:"price"`
	Options     map[string]string `json:"options,omitempty"`
	Quantity    int               `json:"quantity"`
}

// Key identifies a line item by product and normalized options. Two items
// with the same key are merged when added to the cart. The key is a JSON
// array so option text cannot collide with the separators.
func (i LineItem) Key() string {
	opts := NormalizeOptions(i.Options)
	names := make([]string, 0, len(opts))
	for name := range opts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, 1+2*len(names))
	parts = append(parts, i.ProductID)
	for _, name := range names {
		parts = append(parts, name, opts[name])
	}
	key, _ := json.Marshal(parts)
	return string(key)
}

// Subtotal returns unit price times quantity.
func (i LineItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Clone returns a copy that shares no maps with the receiver.
func (i LineItem) Clone() LineItem {
	i.Options = maps.Clone(i.Options)
	return i
}

// NormalizeOptions trims names and values and drops options without a value.
// It returns nil when nothing remains.
func NormalizeOptions(opts map[string]string) map[string]string {
	var out map[string]string
	for name, value := range opts {
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(opts))
		}
		out[name] = value
	}
	return out
}

// CartSnapshot is the persisted and observable form of the cart.
// Totals are always derived from Items.
type CartSnapshot struct {
	Items       []LineItem `json:"items"`
	TotalItems  int        `json:"totalItems"`
	TotalAmount int64      `json:"totalAmount"`
}

// NewCartSnapshot copies items and computes totals.
func NewCartSnapshot(items []LineItem) CartSnapshot {
	snap := CartSnapshot{Items: make([]LineItem, 0, len(items))}
	for _, item := range items {
		snap.Items = append(snap.Items, item.Clone())
		snap.TotalItems += item.Quantity
		snap.TotalAmount += item.Subtotal()
	}
	return snap
}

func (c CartSnapshot) IsEmpty() bool {
	return len(c.Items) == 0
}
