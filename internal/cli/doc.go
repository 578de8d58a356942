// Package cli implements the command-line interface for poker-calendar.
//
// The root command loads configuration and logging; its subcommands serve
// the schedule over HTTP (serve), print one schedule run (fetch, as text,
// JSON or terminal-rendered markdown) and export an iCalendar feed (ics).
package cli
