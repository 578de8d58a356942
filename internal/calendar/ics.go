// Package calendar exports schedules as iCalendar feeds.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/pfrederiksen/poker-calendar/internal/convert"
	"github.com/pfrederiksen/poker-calendar/internal/event"
)

const (
	ProductID = "-//poker-calendar//poker-calendar//EN"
	Name      = "Poker Tournaments"
)

// uidNamespace scopes event UIDs so they stay stable across exports.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/pfrederiksen/poker-calendar"))

// Build generates an iCalendar feed with one all-day event per tournament.
// Events whose start date does not parse are skipped. stamp is written as
// DTSTAMP of every event.
func Build(events []*event.Event, stamp time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName(Name)

	for _, evt := range events {
		if evt.Start.IsZero() {
			continue
		}

		vevent := cal.AddEvent(UID(evt))
		vevent.SetDtStampTime(stamp.UTC())
		vevent.SetAllDayStartAt(evt.Start)
		vevent.SetAllDayEndAt(lastDay(evt).AddDate(0, 0, 1)) // DTEND is exclusive
		vevent.SetSummary(evt.Tournament)
		if evt.Location != "" {
			vevent.SetLocation(evt.Location)
		}
		if evt.HandbookURL != "" {
			vevent.SetURL(evt.HandbookURL)
		}
		vevent.SetDescription(describe(evt))
	}

	return cal
}

// GenerateICS serializes Build's output.
func GenerateICS(events []*event.Event, stamp time.Time) string {
	return Build(events, stamp).Serialize()
}

// UID returns a deterministic identifier for evt.
func UID(evt *event.Event) string {
	key := strings.Join([]string{evt.StartDate, evt.Tournament, evt.Location}, "|")
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@poker-calendar"
}

// lastDay returns the final day of the event, the start day when the
// end date is missing or earlier than the start.
func lastDay(evt *event.Event) time.Time {
	if evt.End.IsZero() || evt.End.Before(evt.Start) {
		return evt.Start
	}
	return evt.End
}

func describe(evt *event.Event) string {
	desc := fmt.Sprintf("Buy-in: %s", convert.Display(evt.BuyIn, evt.Currency))
	if evt.USD != nil {
		desc += fmt.Sprintf(" (~%s)", convert.DisplayUSD(evt.USD))
	}
	if evt.HandbookURL != "" {
		desc += "\nHandbook: " + evt.HandbookURL
	}
	return desc
}
