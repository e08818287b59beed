package domain

import (
	"fmt"
)

// DefaultCurrencyPrefix is the marketplace display currency.
const DefaultCurrencyPrefix = "Kes."

// FormatMoney renders an amount for display, e.g. "Kes. 100.00".
// An empty prefix falls back to the default.
func FormatMoney(prefix string, amount float64) string {
	if prefix == "" {
		prefix = DefaultCurrencyPrefix
	}
	return fmt.Sprintf("%s %.2f", prefix, amount)
}
