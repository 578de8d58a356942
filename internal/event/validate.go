package event

import "time"

// Reason explains why a row was dropped. The empty Reason means kept.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonMissingStartDate  Reason = "missing_start_date"
	ReasonMissingTournament Reason = "missing_tournament"
	ReasonEnded             Reason = "ended"
)

// Validation is the outcome of checking one row.
type Validation struct {
	Event  *Event
	Reason Reason
}

// OK reports whether the row is listed.
func (v Validation) OK() bool {
	return v.Reason == ReasonNone
}

// Validate applies the required-field rule and then the recency rule.
func Validate(row Row, cutoff time.Time) Validation {
	evt := NewEvent(row)

	if evt.StartDate == "" {
		return Validation{Event: evt, Reason: ReasonMissingStartDate}
	}
	if evt.Tournament == "" {
		return Validation{Event: evt, Reason: ReasonMissingTournament}
	}
	if !evt.IsRecent(cutoff) {
		return Validation{Event: evt, Reason: ReasonEnded}
	}

	return Validation{Event: evt}
}

// FilterResult holds the rows that passed validation and drop counts by reason.
type FilterResult struct {
	Events  []*Event
	Dropped map[Reason]int
}

// Filter validates every row against the cutoff derived from now.
func Filter(rows []Row, now time.Time) FilterResult {
	cutoff := Cutoff(now)
	result := FilterResult{
		Events:  make([]*Event, 0, len(rows)),
		Dropped: make(map[Reason]int),
	}

	for _, row := range rows {
		v := Validate(row, cutoff)
		if !v.OK() {
			result.Dropped[v.Reason]++
			continue
		}
		result.Events = append(result.Events, v.Event)
	}

	return result
}
