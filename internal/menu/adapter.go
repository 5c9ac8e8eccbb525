package menu

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/citi94/order-coffee/internal/domain"
	"github.com/rs/zerolog"
)

// Adapter turns a vendor catalog payload into products.
type Adapter struct {
	logger zerolog.Logger
}

func NewAdapter(logger zerolog.Logger) *Adapter {
	return &Adapter{logger: logger}
}

// Normalize accepts a top-level array or an object with a data or products
// array. Records without any id are skipped.
func (a *Adapter) Normalize(raw []byte) ([]domain.Product, error) {
	records, err := envelope(raw)
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(records))
	for i, r := range records {
		product, ok := a.normalizeRecord(r)
		if !ok {
			a.logger.Warn().Int("index", i).Msg("skipping catalog record without id")
			continue
		}
		products = append(products, product)
	}
	return products, nil
}

func envelope(raw []byte) ([]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	var top any
	if err := dec.Decode(&top); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedCatalog, err)
	}

	switch top.(type) {
	case []any:
		var records []json.RawMessage
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedCatalog, err)
		}
		return records, nil
	case map[string]any:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedCatalog, err)
		}
		for _, field := range []string{"data", "products"} {
			body, ok := obj[field]
			if !ok || !isArray(body) {
				continue
			}
			var records []json.RawMessage
			if err := json.Unmarshal(body, &records); err == nil {
				return records, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no product list found", domain.ErrMalformedCatalog)
}

// isArray reports whether raw holds a JSON array. A null field is not a list.
func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func (a *Adapter) normalizeRecord(raw json.RawMessage) (domain.Product, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rec record
	if err := dec.Decode(&rec); err != nil {
		return domain.Product{}, false
	}

	id := firstOf(rec, "", idRules...)
	if id == "" {
		return domain.Product{}, false
	}

	p := domain.Product{
		ID:          id,
		Name:        firstOf(rec, defaultName, stringAt("name")),
		Description: firstOf(rec, "", stringAt("description")),
		Price:       firstOf(rec, 0, priceRules...),
		Category:    firstOf(rec, defaultCategory, categoryRules...),
		ImageURL:    firstOf(rec, "", imageRules...),
		Variants:    a.variants(id, raw),
	}
	if p.Category == defaultCategory && isCoffee(p.Name) {
		p.Category = coffeeCategory
	}
	return p, true
}

func (a *Adapter) variants(productID string, raw json.RawMessage) []domain.Variant {
	var holder struct {
		Variants []json.RawMessage `json:"variants"`
	}
	if err := json.Unmarshal(raw, &holder); err != nil {
		return nil
	}

	variants := make([]domain.Variant, 0, len(holder.Variants))
	for _, vr := range holder.Variants {
		var v domain.Variant
		if err := json.Unmarshal(vr, &v); err != nil {
			// Keep the record as-is even when its fields are unusable.
			v = domain.Variant{Raw: vr}
			a.logger.Debug().Err(err).Str("product_id", productID).Msg("unparsable variant kept verbatim")
		}
		variants = append(variants, v)
	}
	if len(variants) == 0 {
		return nil
	}
	return variants
}
