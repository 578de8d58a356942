package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/poker-calendar/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate       SortOrder = "date"
	SortByLocation   SortOrder = "location"
	SortByTournament SortOrder = "tournament"
)

// sortEvents reorders events. Rows arrive in date order, so SortByDate
// keeps them and the other orders fall back to it through stability.
func sortEvents(events []*event.Event, order SortOrder) {
	switch order {
	case SortByDate:
		event.Sort(events)
	case SortByLocation:
		sort.SliceStable(events, func(i, j int) bool {
			return lessFold(events[i].Location, events[j].Location)
		})
	case SortByTournament:
		sort.SliceStable(events, func(i, j int) bool {
			return lessFold(events[i].Tournament, events[j].Tournament)
		})
	}
}

// lessFold compares case-insensitively, putting empty values last
func lessFold(a, b string) bool {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return a != "" && b == ""
	}
	return a < b
}
