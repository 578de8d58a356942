// Package convert resolves tournament buy-ins into the reference currency.
//
// Amounts are parsed from free-form sheet text as decimals, divided by a
// rate expressed as units per reference unit, and formatted for display. A buy-in that cannot be converted is reported as absent, never as
// zero.
package convert
