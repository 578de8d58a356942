package sheet

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/pfrederiksen/poker-calendar/internal/event"
)

// headerAliases maps header spellings seen in published sheets to the
// canonical column names.
var headerAliases = map[string]string{
	"ME Buy-in (USD)": event.ColBuyInUSD,
	"ME Buy-In(USD)":  event.ColBuyInUSD,
	"ME Buy-In (USD)": event.ColBuyInUSD,
	"ME Buy-In":       event.ColBuyIn,
}

// ParseResult holds parsed rows and the number of records that were skipped
// because the CSV reader could not decode them.
type ParseResult struct {
	Header    []string
	Rows      []event.Row
	Malformed int
}

// HasColumns reports whether the header names every column in cols.
func (p ParseResult) HasColumns(cols ...string) bool {
	for _, col := range cols {
		found := false
		for _, h := range p.Header {
			if h == col {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Parse turns CSV text with a header row into rows. It never fails: short
// rows get empty values, extra fields are ignored and blank lines are
// skipped. A record the reader cannot decode, such as one with a stray or
// unclosed quote, is counted as malformed and parsing resumes on the line
// after the one where that record started.
func Parse(text string) ParseResult {
	var result ParseResult

	lines := strings.SplitAfter(text, "\n")
	pos := 0
	for pos < len(lines) {
		r := newReader(strings.Join(lines[pos:], ""))

		for {
			record, err := r.Read()
			if errors.Is(err, io.EOF) {
				return result
			}

			var perr *csv.ParseError
			if errors.As(err, &perr) {
				result.Malformed++
				pos += max(perr.StartLine, 1) // resync after the bad record's first line
				break
			}
			if err != nil {
				return result
			}

			if isBlank(record) {
				continue
			}
			if result.Header == nil {
				result.Header = canonicalHeader(record)
				continue
			}
			result.Rows = append(result.Rows, toRow(result.Header, record))
		}
	}

	return result
}

func newReader(text string) *csv.Reader {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.ReuseRecord = false
	return r
}

func toRow(header, record []string) event.Row {
	row := make(event.Row, len(header))
	for i, col := range header {
		if col == "" {
			continue
		}
		if _, seen := row[col]; seen {
			continue // first column with a given name wins
		}
		if i < len(record) {
			row[col] = record[i]
		} else {
			row[col] = ""
		}
	}
	return row
}

func canonicalHeader(record []string) []string {
	header := make([]string, len(record))
	for i, name := range record {
		header[i] = canonicalName(name)
	}
	return header
}

func canonicalName(name string) string {
	name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	name = strings.Join(strings.Fields(name), " ")
	if alias, ok := headerAliases[name]; ok {
		return alias
	}
	return name
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
