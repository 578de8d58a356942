// Package rates fetches and caches foreign-exchange rates.
//
// A Table maps an uppercase currency code to the number of units of that
// currency worth one US dollar. The Source adapter reads tables from an
// open.er-api.com style endpoint, and Cache keeps the latest table for a
// fixed validity window, swapping it atomically on refresh.
package rates
