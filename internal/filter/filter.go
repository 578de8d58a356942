// Package filter narrows an assembled schedule for display.
//
// A Query can restrict rows by location, by free-text search over the
// tournament and location, and by a date range:
//
//	q := filter.Query{Location: "Taiwan", Search: "millions"}
//	rows := q.Apply(snapshot.Rows)
//
// Location "" or "ALL" disables the location criterion. The quick keywords
// (Taiwan, Korea) match any location containing them, so "Taipei, Taiwan"
// matches "Taiwan". Any other location must match exactly.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/poker-calendar/internal/event"
)

// AllLocations disables location filtering.
const AllLocations = "ALL"

// QuickLocations are the keywords matched by substring instead of equality.
var QuickLocations = []string{"Taiwan", "Korea"}

// Query represents display filtering criteria
type Query struct {
	Location string `json:"location,omitempty"`
	Search   string `json:"q,omitempty"`

	// Date range, inclusive. Undated rows never match an active range.
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
}

// IsEmpty reports whether the query matches every row.
func (q Query) IsEmpty() bool {
	return isAllLocations(q.Location) &&
		strings.TrimSpace(q.Search) == "" &&
		q.DateFrom == nil &&
		q.DateTo == nil
}

// Matches reports whether evt passes every active criterion.
func (q Query) Matches(evt *event.Event) bool {
	if !q.matchesLocation(evt.Location) {
		return false
	}

	if search := norm(q.Search); search != "" {
		if !strings.Contains(norm(evt.Tournament), search) &&
			!strings.Contains(norm(evt.Location), search) {
			return false
		}
	}

	if q.DateFrom != nil || q.DateTo != nil {
		if evt.Start.IsZero() {
			return false
		}
		last := evt.End
		if last.IsZero() {
			last = evt.Start
		}
		// overlap of [Start, last] with the range
		if q.DateFrom != nil && last.Before(event.Midnight(*q.DateFrom)) {
			return false
		}
		if q.DateTo != nil && evt.Start.After(*q.DateTo) {
			return false
		}
	}

	return true
}

func (q Query) matchesLocation(location string) bool {
	if isAllLocations(q.Location) {
		return true
	}
	pick := strings.TrimSpace(q.Location)
	if IsQuickLocation(pick) {
		return strings.Contains(norm(location), norm(pick))
	}
	return strings.TrimSpace(location) == pick
}

// Apply returns the rows matching the query, preserving order. The result
// is never nil.
func (q Query) Apply(events []*event.Event) []*event.Event {
	filtered := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if q.IsEmpty() || q.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}
	return filtered
}

// String returns a human-readable description of the active criteria.
func (q Query) String() string {
	if q.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	if !isAllLocations(q.Location) {
		parts = append(parts, fmt.Sprintf("Location: %s", strings.TrimSpace(q.Location)))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		parts = append(parts, fmt.Sprintf("Search: %s", s))
	}
	if q.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", q.DateFrom.Format("Jan 2, 2006")))
	}
	if q.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", q.DateTo.Format("Jan 2, 2006")))
	}

	return strings.Join(parts, " | ")
}

// IsQuickLocation reports whether pick is one of QuickLocations.
func IsQuickLocation(pick string) bool {
	for _, k := range QuickLocations {
		if strings.EqualFold(k, strings.TrimSpace(pick)) {
			return true
		}
	}
	return false
}

// Locations returns the distinct non-empty locations of events, sorted.
func Locations(events []*event.Event) []string {
	seen := make(map[string]bool)
	locations := make([]string, 0)
	for _, evt := range events {
		loc := strings.TrimSpace(evt.Location)
		if loc == "" || seen[loc] {
			continue
		}
		seen[loc] = true
		locations = append(locations, loc)
	}
	sort.Strings(locations)
	return locations
}

func isAllLocations(pick string) bool {
	pick = strings.TrimSpace(pick)
	return pick == "" || strings.EqualFold(pick, AllLocations)
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
