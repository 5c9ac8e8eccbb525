package menu

import (
	"errors"
	"sort"
	"strings"

	"github.com/citi94/order-coffee/internal/domain"
)

var ErrInvalidSelection = errors.New("invalid product selection")

// Customize turns a product and the chosen options into a cart line item.
// The price comes from the variant matching every chosen option when one
// exists, otherwise from the product.
func Customize(p domain.Product, options map[string]string, quantity int) (domain.LineItem, error) {
	if p.ID == "" || quantity < 1 {
		return domain.LineItem{}, ErrInvalidSelection
	}
	options = domain.NormalizeOptions(options)

	item := domain.LineItem{
		ProductID:   p.ID,
		DisplayName: displayName(p.Name, options),
		UnitPrice:   p.Price,
		Options:     options,
		Quantity:    quantity,
	}
	if len(options) > 0 {
		for _, v := range p.Variants {
			if v.Matches(options) {
				item.VariantID = v.ID
				if v.HasPrice {
					item.UnitPrice = v.Price
				}
				break
			}
		}
	}
	return item, nil
}

func displayName(name string, options map[string]string) string {
	if len(options) == 0 {
		return name
	}
	names := make([]string, 0, len(options))
	for n := range options {
		names = append(names, n)
	}
	sort.Strings(names)

	values := make([]string, 0, len(names))
	for _, n := range names {
		values = append(values, options[n])
	}
	return name + " with " + strings.Join(values, ", ")
}
