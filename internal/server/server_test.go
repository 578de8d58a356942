package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/poker-calendar/internal/config"
	"github.com/pfrederiksen/poker-calendar/internal/event"
	"github.com/pfrederiksen/poker-calendar/internal/metrics"
	"github.com/pfrederiksen/poker-calendar/internal/rates"
	"github.com/pfrederiksen/poker-calendar/internal/schedule"
	"github.com/pfrederiksen/poker-calendar/internal/sheet"
)

type stubRunner struct {
	events []*event.Event
	err    error
	runs   int
}

func (s *stubRunner) Run(ctx context.Context) (*schedule.Snapshot, error) {
	s.runs++
	if s.err != nil {
		return nil, s.err
	}
	return schedule.Assemble(s.events, time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)), nil
}

func sampleRunner() *stubRunner {
	usd := 937.5
	rows := []event.Row{
		{"Start Date": "2025-01-10", "End Date": "2025-01-12", "Location": "Taipei, Taiwan", "Tournament": "Taipei Millions", "ME Buy-in": "30000", "Currency": "TWD"},
		{"Start Date": "2025-02-10", "Location": "Jeju, Korea", "Tournament": "Korea Cup", "ME Buy-in": "TBA", "Currency": "KRW"},
	}
	r := &stubRunner{}
	for _, row := range rows {
		r.events = append(r.events, event.NewEvent(row))
	}
	r.events[0].USD = &usd
	return r
}

func newTestServer(r Runner) *httptest.Server {
	s := New(config.Server{ListenAddress: ":0"}, r, metrics.New())
	s.Now = func() time.Time { return time.Date(2025, 1, 13, 0, 0, 0, 0, event.Taipei) }
	return httptest.NewServer(s.Handler())
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, string(body)
}

func TestSchedule(t *testing.T) {
	srv := newTestServer(sampleRunner())
	defer srv.Close()

	resp, body := get(t, srv.URL+"/api/schedule")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}

	var decoded struct {
		Rows []map[string]interface{} `json:"rows"`
	}
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(decoded.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(decoded.Rows))
	}
	if decoded.Rows[0]["usd"] != 937.5 {
		t.Errorf("usd = %v, want 937.5", decoded.Rows[0]["usd"])
	}
	if v, ok := decoded.Rows[1]["usd"]; !ok || v != nil {
		t.Errorf("second usd = %v (present=%v), want null", v, ok)
	}
}

func TestSchedule_Filters(t *testing.T) {
	srv := newTestServer(sampleRunner())
	defer srv.Close()

	tests := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?location=ALL", 2},
		{"?location=Korea", 1},
		{"?location=Taipei", 0},
		{"?q=millions", 1},
		{"?when=Feb", 1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, body := get(t, srv.URL+"/api/schedule"+tt.query)
			var decoded struct {
				Rows []json.RawMessage `json:"rows"`
			}
			if err := json.Unmarshal([]byte(body), &decoded); err != nil {
				t.Fatalf("Unmarshal() error = %v in %s", err, body)
			}
			if decoded.Rows == nil {
				t.Fatalf("rows missing or null in %s", body)
			}
			if len(decoded.Rows) != tt.want {
				t.Errorf("rows = %d, want %d", len(decoded.Rows), tt.want)
			}
		})
	}
}

func TestSchedule_BadRange(t *testing.T) {
	r := sampleRunner()
	srv := newTestServer(r)
	defer srv.Close()

	resp, body := get(t, srv.URL+"/api/schedule?when=someday")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if !strings.Contains(body, `"error"`) {
		t.Errorf("body = %s, want error object", body)
	}
	if r.runs != 0 {
		t.Errorf("pipeline ran %d times for a bad request", r.runs)
	}
}

func TestSchedule_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing config", config.ErrConfigurationMissing, "missing SHEET_CSV_URL"},
		{"source down", fmt.Errorf("%w: unexpected status code 503", sheet.ErrSourceUnavailable), "schedule source unavailable: unexpected status code 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubRunner{err: tt.err})
			defer srv.Close()

			resp, body := get(t, srv.URL+"/api/schedule")
			if resp.StatusCode != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", resp.StatusCode)
			}

			var decoded map[string]string
			if err := json.Unmarshal([]byte(body), &decoded); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if decoded["error"] != tt.want {
				t.Errorf("error = %q, want %q", decoded["error"], tt.want)
			}
			if len(decoded) != 1 {
				t.Errorf("error body has extra keys: %v", decoded)
			}
		})
	}
}

func TestLocations(t *testing.T) {
	srv := newTestServer(sampleRunner())
	defer srv.Close()

	_, body := get(t, srv.URL+"/api/locations")
	var decoded struct {
		Locations []string `json:"locations"`
	}
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := []string{"Jeju, Korea", "Taipei, Taiwan"}
	if strings.Join(decoded.Locations, "|") != strings.Join(want, "|") {
		t.Errorf("locations = %v, want %v", decoded.Locations, want)
	}
}

func TestICS(t *testing.T) {
	srv := newTestServer(sampleRunner())
	defer srv.Close()

	resp, body := get(t, srv.URL+"/schedule.ics?location=Taiwan")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q", ct)
	}
	if n := strings.Count(body, "BEGIN:VEVENT"); n != 1 {
		t.Errorf("VEVENT count = %d, want 1", n)
	}
	if !strings.Contains(body, "SUMMARY:Taipei Millions") {
		t.Errorf("calendar missing event:\n%s", body)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(sampleRunner())
	defer srv.Close()

	resp, body := get(t, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || body != "ok" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}

	resp, body = get(t, srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("metrics missing Go collector output")
	}
}

type stubRates struct {
	table *rates.Table
	ttl   time.Duration
}

func (s stubRates) Current() *rates.Table { return s.table }
func (s stubRates) TTL() time.Duration    { return s.ttl }

func TestRates(t *testing.T) {
	now := time.Date(2025, 1, 13, 0, 0, 0, 0, event.Taipei)

	tests := []struct {
		name       string
		status     RateStatus
		wantStatus int
		wantStale  bool
	}{
		{
			name:       "not configured",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "nothing fetched yet",
			status:     stubRates{ttl: 24 * time.Hour},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name: "fresh table",
			status: stubRates{
				table: &rates.Table{Base: "USD", Rates: map[string]float64{"TWD": 32, "KRW": 1400}, FetchedAt: now.Add(-time.Hour)},
				ttl:   24 * time.Hour,
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "expired table",
			status: stubRates{
				table: &rates.Table{Base: "USD", Rates: map[string]float64{"TWD": 32}, FetchedAt: now.Add(-25 * time.Hour)},
				ttl:   24 * time.Hour,
			},
			wantStatus: http.StatusOK,
			wantStale:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(config.Server{ListenAddress: ":0"}, sampleRunner(), nil)
			s.Now = func() time.Time { return now }
			s.Rates = tt.status
			srv := httptest.NewServer(s.Handler())
			defer srv.Close()

			resp, body := get(t, srv.URL+"/api/rates")
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantStatus != http.StatusOK {
				if !strings.Contains(body, `"error"`) {
					t.Errorf("body = %s, want an error document", body)
				}
				return
			}

			var got struct {
				Base       string `json:"base"`
				AgeSeconds int64  `json:"age_seconds"`
				TTLSeconds int64  `json:"ttl_seconds"`
				Stale      bool   `json:"stale"`
				Currencies int    `json:"currencies"`
			}
			if err := json.Unmarshal([]byte(body), &got); err != nil {
				t.Fatalf("decoding %s: %v", body, err)
			}
			table := tt.status.Current()
			if got.Base != "USD" || got.Currencies != len(table.Rates) {
				t.Errorf("got %+v", got)
			}
			if got.TTLSeconds != 86400 {
				t.Errorf("ttl_seconds = %d, want 86400", got.TTLSeconds)
			}
			if want := int64(now.Sub(table.FetchedAt) / time.Second); got.AgeSeconds != want {
				t.Errorf("age_seconds = %d, want %d", got.AgeSeconds, want)
			}
			if got.Stale != tt.wantStale {
				t.Errorf("stale = %v, want %v", got.Stale, tt.wantStale)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(sampleRunner())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/schedule", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(sampleRunner())
	defer srv.Close()

	resp, _ := get(t, srv.URL+"/healthz")
	generated := resp.Header.Get(RequestIDHeader)
	if _, err := uuid.Parse(generated); err != nil {
		t.Errorf("generated request ID %q is not a UUID", generated)
	}

	incoming := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, incoming)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if got := resp2.Header.Get(RequestIDHeader); got != incoming {
		t.Errorf("request ID = %q, want %q", got, incoming)
	}

	req.Header.Set(RequestIDHeader, "not-a-uuid")
	resp3, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp3.Body.Close()
	if got := resp3.Header.Get(RequestIDHeader); got == "not-a-uuid" {
		t.Error("invalid incoming request ID was echoed")
	}
}
