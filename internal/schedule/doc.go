// Package schedule runs the ingestion pipeline that turns the published sheet
// into the listed tournament schedule.
//
// One Run fetches the sheet and the exchange rates concurrently, then parses,
// validates, sorts and converts the rows and assembles an immutable Snapshot.
// Any fetch failure fails the whole run; rows that are dropped or cannot be
// converted never do.
package schedule
