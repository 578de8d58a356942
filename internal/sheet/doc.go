// Package sheet fetches and parses the published tournament schedule.
//
// The schedule is a spreadsheet exported as CSV. Fetcher always downloads a
// fresh copy and rejects responses that are not tabular, such as the HTML
// sign-in or error pages a spreadsheet host returns for an unpublished
// sheet. Parse turns the CSV text into header-keyed rows, tolerating short
// rows and blank lines and skipping malformed records.
package sheet
