package event

import (
	"strings"
	"time"
)

// Column names of the published schedule sheet.
const (
	ColStartDate  = "Start Date"
	ColEndDate    = "End Date"
	ColLocation   = "Location"
	ColTournament = "Tournament"
	ColBuyIn      = "ME Buy-in"
	ColBuyInUSD   = "ME Buy-in(USD)" // optional precomputed USD amount
	ColCurrency   = "Currency"
	ColHandbook   = "Handbook URL"
)

// Row is one record of the schedule sheet keyed by column name.
// Any value may be missing or empty.
type Row map[string]string

// Get returns the trimmed value of a column, or "" when absent.
func (r Row) Get(col string) string {
	return strings.TrimSpace(r[col])
}

// Event is a validated schedule entry
type Event struct {
	StartDate   string `json:"Start Date"`
	EndDate     string `json:"End Date"`
	Location    string `json:"Location"`
	Tournament  string `json:"Tournament"`
	BuyIn       string `json:"ME Buy-in"`
	Currency    string `json:"Currency"`
	HandbookURL string `json:"Handbook URL"`

	// USD is the buy-in in the reference currency, nil when conversion
	// is not possible.
	USD *float64 `json:"usd"`

	BuyInUSD string    `json:"-"` // raw override column
	Start    time.Time `json:"-"` // zero when StartDate does not parse
	End      time.Time `json:"-"` // zero when EndDate is missing or does not parse
}

// NewEvent projects a row onto an Event. Dates are parsed but not validated.
// The buy-in text is kept verbatim; every other column is trimmed.
func NewEvent(row Row) *Event {
	e := &Event{
		StartDate:   row.Get(ColStartDate),
		EndDate:     row.Get(ColEndDate),
		Location:    row.Get(ColLocation),
		Tournament:  row.Get(ColTournament),
		BuyIn:       row[ColBuyIn],
		BuyInUSD:    row.Get(ColBuyInUSD),
		Currency:    strings.ToUpper(row.Get(ColCurrency)),
		HandbookURL: row.Get(ColHandbook),
	}
	e.Start = ParseDate(e.StartDate)
	e.End = ParseDate(e.EndDate)
	return e
}
