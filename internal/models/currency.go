package models

import (
	"strings"

	"github.com/Rhymond/go-money"
)

// DefaultPositionCurrency is assigned to a position that has no stored currency yet.
const DefaultPositionCurrency = "USD"

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCurrency reports whether code is a known three-letter ISO-4217 code.
func ValidCurrency(code string) bool {
	code = NormalizeCurrency(code)
	if len(code) != 3 {
		return false
	}
	return money.GetCurrency(code) != nil
}

// FXPair builds the concatenated pair key used by the market data service,
// e.g. FXPair("eur", "USD") == "EURUSD" (1 EUR expressed in USD).
func FXPair(from, to string) string {
	return NormalizeCurrency(from) + NormalizeCurrency(to)
}
