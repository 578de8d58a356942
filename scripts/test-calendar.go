package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/poker-calendar/internal/calendar"
	"github.com/pfrederiksen/poker-calendar/internal/event"
)

// Writes a sample calendar for checking how calendar apps import the feed.
func main() {
	start := time.Now().In(event.Taipei).AddDate(0, 0, 14)
	usd := 937.5

	evt := event.NewEvent(event.Row{
		event.ColStartDate:  start.Format("2006-01-02"),
		event.ColEndDate:    start.AddDate(0, 0, 2).Format("2006-01-02"),
		event.ColLocation:   "Taipei, Taiwan",
		event.ColTournament: "Sample Millions Main Event",
		event.ColBuyIn:      "30,000",
		event.ColCurrency:   "TWD",
		event.ColHandbook:   "https://example.com/handbook.pdf",
	})
	evt.USD = &usd

	icsContent := calendar.GenerateICS([]*event.Event{evt}, time.Now())

	filename := "test-poker-calendar.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", filename)
	fmt.Println("Open it with your calendar app to check the all-day event and description.")
}
