// Package storage provides JSON-based persistence for the last known rate table.
//
// The table is written to rates.json in the data directory after every
// successful refresh and read back only when stale-rate fallback is enabled
// and the rate provider is unreachable. The default location is
// ~/.local/share/poker-calendar/.
package storage
