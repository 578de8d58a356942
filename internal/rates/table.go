package rates

import (
	"strings"
	"time"
)

// Table is an immutable snapshot of exchange rates against Base.
type Table struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// Rate returns the units of code per one Base unit.
func (t *Table) Rate(code string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	r, ok := t.Rates[strings.ToUpper(strings.TrimSpace(code))]
	return r, ok
}

// Age returns how long ago the table was fetched.
func (t *Table) Age(now time.Time) time.Duration {
	return now.Sub(t.FetchedAt)
}
