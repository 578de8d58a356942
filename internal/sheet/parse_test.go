package sheet

import (
	"os"
	"testing"

	"github.com/pfrederiksen/poker-calendar/internal/event"
)

func TestParse_Fixture(t *testing.T) {
	data, err := os.ReadFile("testdata/schedule.csv")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	result := Parse(string(data))

	if len(result.Rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(result.Rows))
	}

	first := result.Rows[0]
	if first.Get(event.ColLocation) != "Taipei, Taiwan" {
		t.Errorf("quoted field with comma: got %q", first.Get(event.ColLocation))
	}
	if first.Get(event.ColBuyIn) != "30,000" {
		t.Errorf("buy-in: got %q", first.Get(event.ColBuyIn))
	}

	short := result.Rows[4]
	if short.Get(event.ColTournament) != "Short Row" {
		t.Errorf("short row tournament: got %q", short.Get(event.ColTournament))
	}
	if v, ok := short[event.ColCurrency]; !ok || v != "" {
		t.Errorf("short row should have empty Currency, got %q (present=%v)", v, ok)
	}

	extra := result.Rows[5]
	if extra.Get(event.ColHandbook) != "" {
		t.Errorf("extra fields should be ignored, Handbook URL = %q", extra.Get(event.ColHandbook))
	}

	last := result.Rows[6]
	if last.Get(event.ColBuyInUSD) != "600" {
		t.Errorf("override column: got %q", last.Get(event.ColBuyInUSD))
	}
}

func TestParse_Edges(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantRows int
	}{
		{"empty input", "", 0},
		{"header only", "Start Date,Tournament\n", 0},
		{"leading blank lines", "\n\nStart Date,Tournament\n2025-01-01,A\n", 1},
		{"CRLF line endings", "Start Date,Tournament\r\n2025-01-01,A\r\n2025-01-02,B\r\n", 2},
		{"quoted field spanning lines", "Start Date,Tournament\n2025-01-01,\"Two\nLines\"\n2025-01-02,B\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(Parse(tt.text).Rows); got != tt.wantRows {
				t.Errorf("Parse() rows = %d, want %d", got, tt.wantRows)
			}
		})
	}
}

func TestParse_MalformedRecords(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		wantTitles    []string
		wantMalformed int
	}{
		{
			name:          "unclosed quote mid-file",
			text:          "Start Date,Tournament,Location\n2025-01-01,\"Bad Row,Taipei\n2025-01-02,Good One,Seoul\n2025-01-03,Good Two,Macau\n",
			wantTitles:    []string{"Good One", "Good Two"},
			wantMalformed: 1,
		},
		{
			name:          "bare quote inside a field",
			text:          "Start Date,Tournament\n2025-01-01,Bob's \"Big\" Game\n2025-01-02,Next\n",
			wantTitles:    []string{"Next"},
			wantMalformed: 1,
		},
		{
			name:          "two bad records",
			text:          "Start Date,Tournament\n2025-01-01,A\n2025-01-02,\"x\"y\n2025-01-03,B\n2025-01-04,\"open\n2025-01-05,C\n",
			wantTitles:    []string{"A", "B", "C"},
			wantMalformed: 2,
		},
		{
			name:          "bad header line is skipped",
			text:          "\"broken,header\nStart Date,Tournament\n2025-01-01,A\n",
			wantTitles:    []string{"A"},
			wantMalformed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.text)
			if result.Malformed != tt.wantMalformed {
				t.Errorf("Malformed = %d, want %d", result.Malformed, tt.wantMalformed)
			}
			if len(result.Rows) != len(tt.wantTitles) {
				t.Fatalf("rows = %d, want %d: %v", len(result.Rows), len(tt.wantTitles), result.Rows)
			}
			for i, want := range tt.wantTitles {
				if got := result.Rows[i][event.ColTournament]; got != want {
					t.Errorf("row %d tournament = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestParseResult_HasColumns(t *testing.T) {
	result := Parse("Start Date,ME Buy-In,Tournament\n")
	if !result.HasColumns(event.ColStartDate, event.ColTournament, event.ColBuyIn) {
		t.Errorf("HasColumns() = false for header %v", result.Header)
	}
	if result.HasColumns(event.ColCurrency) {
		t.Error("HasColumns() = true for a missing column")
	}
	if (ParseResult{}).HasColumns(event.ColStartDate) {
		t.Error("HasColumns() = true without a header")
	}
}

func TestParse_HeaderCanonicalization(t *testing.T) {
	text := "\ufeff Start Date , Tournament ,ME Buy-in (USD)\n2025-01-01,A,100\n"

	rows := Parse(text).Rows
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Get(event.ColStartDate) != "2025-01-01" {
		t.Errorf("BOM and spaces should be stripped from headers, row = %v", rows[0])
	}
	if rows[0].Get(event.ColBuyInUSD) != "100" {
		t.Errorf("header alias should map to %q, row = %v", event.ColBuyInUSD, rows[0])
	}
}
