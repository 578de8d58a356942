package event

import "sort"

// Sort orders events by Start Date, oldest first. The sort is stable, and
// events whose Start Date does not parse go last in their original order.
func Sort(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return startsBefore(events[i], events[j])
	})
}

// startsBefore returns true if i should come before j
func startsBefore(i, j *Event) bool {
	if !i.Start.IsZero() && !j.Start.IsZero() {
		return i.Start.Before(j.Start)
	}

	// Only one date is valid, put the valid one first
	return !i.Start.IsZero() && j.Start.IsZero()
}
