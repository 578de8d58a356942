// Package event provides types and functions for poker tournament schedule entries.
//
// The event package turns loosely-typed spreadsheet rows into validated events.
// It owns the canonical calendar-date parser (anchored to Asia/Taipei), the
// required-field and recency rules that decide which rows are listed, and the
// chronological ordering used for display.
package event
