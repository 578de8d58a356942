package convert

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// NoAmount is shown when a buy-in or conversion is missing.
const NoAmount = "-"

// Display renders a local buy-in for people: "-" when empty, "TWD 30,000"
// when numeric, and the raw text (e.g. "TBA") otherwise.
func Display(raw, currency string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NoAmount
	}
	amount, ok := ParseAmount(raw)
	if !ok {
		return raw
	}
	return formatAmount(amount, strings.ToUpper(strings.TrimSpace(currency)))
}

// DisplayUSD renders a reference amount rounded to whole dollars.
func DisplayUSD(usd *float64) string {
	if usd == nil {
		return NoAmount
	}
	rounded := decimal.NewFromFloat(*usd).Round(0)
	return money.NewFormatter(0, ".", ",", "$", "$1").Format(rounded.IntPart())
}

// formatAmount keeps the decimals written in the sheet and groups thousands.
func formatAmount(d decimal.Decimal, code string) string {
	fraction := 0
	if exp := d.Exponent(); exp < 0 {
		fraction = int(-exp)
	}

	template := "1"
	if code != "" {
		template = "$ 1"
	}

	f := money.NewFormatter(fraction, ".", ",", code, template)
	return f.Format(d.Shift(int32(fraction)).IntPart())
}
