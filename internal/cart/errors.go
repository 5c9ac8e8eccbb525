package cart

import "errors"

var (
	ErrInvalidIndex    = errors.New("cart index out of range")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidItem     = errors.New("invalid cart item")
)
