package domain

import "github.com/shopspring/decimal"

// FormatPence renders an amount in pence as pounds, e.g. 350 -> "£3.50".
func FormatPence(pence int64) string {
	return "£" + decimal.New(pence, -2).StringFixed(2)
}
