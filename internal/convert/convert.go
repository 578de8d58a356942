package convert

import (
	"strings"

	"github.com/pfrederiksen/poker-calendar/internal/event"
)

// Reference is the currency every buy-in is converted to.
const Reference = "USD"

// DefaultStableAliases are codes treated as worth exactly one reference unit.
var DefaultStableAliases = []string{"USDT", "USDC"}

// RateLookup returns how many units of code make one reference unit.
type RateLookup interface {
	Rate(code string) (float64, bool)
}

// Normalizer computes the reference amount of events.
type Normalizer struct {
	stable map[string]bool
}

// NewNormalizer creates a Normalizer with the given stable-asset aliases.
// A nil slice selects DefaultStableAliases.
func NewNormalizer(stableAliases []string) *Normalizer {
	if stableAliases == nil {
		stableAliases = DefaultStableAliases
	}
	n := &Normalizer{stable: map[string]bool{Reference: true}}
	for _, code := range stableAliases {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			n.stable[code] = true
		}
	}
	return n
}

// IsPegged reports whether code converts 1:1 without a rate lookup.
func (n *Normalizer) IsPegged(code string) bool {
	return n.stable[strings.ToUpper(strings.TrimSpace(code))]
}

// ToReference returns the reference amount of one event: the override
// column when numeric, the local amount for pegged codes, otherwise the
// local amount divided by the rate. The second result is false when
// conversion is not possible.
func (n *Normalizer) ToReference(e *event.Event, rates RateLookup) (float64, bool) {
	if override, ok := parseNumber(e.BuyInUSD); ok {
		return override.InexactFloat64(), true
	}

	local, ok := ParseAmount(e.BuyIn)
	if !ok {
		return 0, false
	}
	amount := local.InexactFloat64()

	code := strings.ToUpper(strings.TrimSpace(e.Currency))
	if code == "" {
		return 0, false
	}
	if n.stable[code] {
		return amount, true
	}

	if rates == nil {
		return 0, false
	}
	rate, ok := rates.Rate(code)
	if !ok || rate == 0 {
		return 0, false
	}

	return amount / rate, true
}

// Apply sets USD on every event and returns how many could not be converted.
func (n *Normalizer) Apply(events []*event.Event, rates RateLookup) int {
	missing := 0
	for _, e := range events {
		usd, ok := n.ToReference(e, rates)
		if !ok {
			e.USD = nil
			missing++
			continue
		}
		e.USD = &usd
	}
	return missing
}
