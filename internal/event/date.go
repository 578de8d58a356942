package event

import (
	"strings"
	"time"
)

// Taipei is the reference time zone for schedule dates. Taiwan has no
// daylight saving time, so a fixed offset is exact.
var Taipei = time.FixedZone("Asia/Taipei", 8*60*60)

// GraceDays is how long an event stays listed after its End Date.
const GraceDays = 3

// dateLayouts accept zero-padded and single-digit months and days.
var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
}

// ParseDate parses a sheet date into Taipei midnight.
// Returns time.Time{} (zero value) if parsing fails.
// Supports formats: "2025-01-12", "2025/01/12", "2025-1-2", "2025/1/2"
func ParseDate(dateText string) time.Time {
	dateText = strings.TrimSpace(dateText)
	if dateText == "" {
		return time.Time{}
	}

	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, dateText, Taipei)
		if err == nil {
			return t
		}
	}

	return time.Time{}
}

// Midnight returns the start of the Taipei calendar day containing t.
func Midnight(t time.Time) time.Time {
	t = t.In(Taipei)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Taipei)
}

// Cutoff returns the earliest End Date still listed at now.
func Cutoff(now time.Time) time.Time {
	return Midnight(now).AddDate(0, 0, -GraceDays)
}

// IsRecent checks if an event ended on or after cutoff.
// Returns true if the End Date is missing or unparseable.
func (e *Event) IsRecent(cutoff time.Time) bool {
	if e.End.IsZero() {
		return true // Can't determine, keep it
	}
	return !e.End.Before(cutoff)
}
