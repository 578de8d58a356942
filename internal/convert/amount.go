package convert

import (
	"strings"

	"github.com/shopspring/decimal"
)

// amountCleaner strips thousands separators and spaces, e.g. "30, 000".
var amountCleaner = strings.NewReplacer(",", "", " ", "")

// parseNumber parses sheet text as a decimal number.
// Returns false for empty or non-numeric text such as "TBA".
func parseNumber(raw string) (decimal.Decimal, bool) {
	s := amountCleaner.Replace(strings.TrimSpace(raw))
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseAmount parses a local buy-in. Negative amounts are treated as absent.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	d, ok := parseNumber(raw)
	if !ok || d.IsNegative() {
		return decimal.Decimal{}, false
	}
	return d, true
}
