package domain

import (
	"encoding/json"
	"math"
	"strings"
)

// Product is a normalized catalog entry. Price is in pence.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Variants    []Variant `json:"variants,omitempty"`
}

// Variant keeps the vendor record untouched and exposes the few fields
// needed to price a customized item.
type Variant struct {
	ID       string
	Name     string
	Price    int64
	HasPrice bool
	Options  []VariantOption
	Raw      json.RawMessage
}

type VariantOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type variantRecord struct {
	UUID    string          `json:"uuid"`
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Price   json.RawMessage `json:"price"`
	Options []VariantOption `json:"options"`
}

func (v *Variant) UnmarshalJSON(data []byte) error {
	var rec variantRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	v.ID = rec.UUID
	if v.ID == "" {
		v.ID = rec.ID
	}
	v.Name = rec.Name
	v.Options = rec.Options
	v.Price, v.HasPrice = parsePrice(rec.Price)
	v.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (v Variant) MarshalJSON() ([]byte, error) {
	if len(v.Raw) > 0 {
		return v.Raw, nil
	}
	return json.Marshal(variantRecord{ID: v.ID, Name: v.Name, Options: v.Options})
}

// Matches reports whether every chosen option is satisfied by the variant.
// Values compare case-insensitively.
func (v Variant) Matches(opts map[string]string) bool {
	if len(v.Options) == 0 {
		return false
	}
	for name, value := range opts {
		found := false
		for _, o := range v.Options {
			if strings.EqualFold(o.Name, name) && strings.EqualFold(o.Value, value) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// parsePrice accepts {"amount": n} or a bare number.
func parsePrice(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var amount struct {
		Amount *float64 `json:"amount"`
	}
	if err := json.Unmarshal(raw, &amount); err == nil && amount.Amount != nil {
		return int64(math.Round(*amount.Amount)), true
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int64(math.Round(n)), true
	}
	return 0, false
}
