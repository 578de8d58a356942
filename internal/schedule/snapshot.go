package schedule

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pfrederiksen/poker-calendar/internal/event"
)

// Snapshot is the assembled schedule for one request. It must not be
// modified after Assemble returns.
type Snapshot struct {
	Rows []*event.Event `json:"rows"`

	GeneratedAt    time.Time            `json:"-"`
	RatesFetchedAt time.Time            `json:"-"`
	Dropped        map[event.Reason]int `json:"-"`
	MissingUSD     int                  `json:"-"`
	Malformed      int                  `json:"-"`
}

// Assemble packages ordered, converted events into a Snapshot.
func Assemble(events []*event.Event, generatedAt time.Time) *Snapshot {
	rows := make([]*event.Event, len(events))
	copy(rows, events)
	return &Snapshot{
		Rows:        rows,
		GeneratedAt: generatedAt,
	}
}

// WithRows returns a copy of the snapshot listing only rows.
func (s *Snapshot) WithRows(rows []*event.Event) *Snapshot {
	out := *s
	out.Rows = rows
	if out.Rows == nil {
		out.Rows = []*event.Event{}
	}
	return &out
}

// WriteJSON writes the response contract {"rows": [...]}.
func (s *Snapshot) WriteJSON(w io.Writer) error {
	return json.NewEncoder(w).Encode(s)
}
