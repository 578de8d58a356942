package sheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/poker-calendar/internal/config"
	"github.com/pfrederiksen/poker-calendar/internal/event"
)

const (
	UserAgent = "poker-calendar/1.0 (github.com/pfrederiksen/poker-calendar)"
	Timeout   = 30 * time.Second

	// maxBody bounds the downloaded sheet.
	maxBody = 8 << 20
	// snippetLen bounds the body excerpt included in diagnostics.
	snippetLen = 800
)

// ErrSourceUnavailable is returned when the schedule cannot be downloaded
// or the response is not a CSV table.
var ErrSourceUnavailable = errors.New("schedule source unavailable")

// Fetcher downloads the schedule CSV
type Fetcher struct {
	client    *http.Client
	url       string
	userAgent string
}

// NewFetcher creates a Fetcher for url. Empty userAgent and zero timeout
// select the defaults.
func NewFetcher(url, userAgent string, timeout time.Duration) *Fetcher {
	if userAgent == "" {
		userAgent = UserAgent
	}
	if timeout <= 0 {
		timeout = Timeout
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		url:       strings.TrimSpace(url),
		userAgent: userAgent,
	}
}

// URL returns the configured source URL.
func (f *Fetcher) URL() string { return f.url }

// Fetch downloads the current schedule text. It never reuses a previous
// response.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	if f.url == "" {
		return "", config.ErrConfigurationMissing
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetching sheet: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("%w: reading sheet: %v", ErrSourceUnavailable, err)
	}

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("%w: unexpected status code %d: %s",
			ErrSourceUnavailable, resp.StatusCode, snippet(body))
	}

	if isHTML(resp.Header.Get("Content-Type"), body) {
		return "", fmt.Errorf("%w: %s", ErrSourceUnavailable, describeHTML(body))
	}

	if err := checkTable(body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	return string(body), nil
}

// isHTML reports whether the response is a web page instead of CSV
func isHTML(contentType string, body []byte) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if mediaType == "text/html" || mediaType == "application/xhtml+xml" {
			return true
		}
	}

	head := bytes.ToLower(bytes.TrimSpace(bytes.TrimPrefix(body, []byte("\ufeff"))))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

// requiredColumns must appear in the header of a schedule table.
var requiredColumns = []string{event.ColStartDate, event.ColTournament}

// checkTable rejects bodies that are not a CSV table with the schedule
// header, such as JSON error documents or plain-text notices.
func checkTable(body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("empty response")
	}
	if !Parse(string(body)).HasColumns(requiredColumns...) {
		return fmt.Errorf("response is not a schedule table (want columns %s): %s",
			strings.Join(requiredColumns, ", "), snippet(body))
	}
	return nil
}

// describeHTML summarizes an unexpected HTML response for operators
func describeHTML(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "got HTML instead of CSV: " + snippet(body)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if title == "" {
		return "got HTML instead of CSV: " + truncate(text)
	}
	return fmt.Sprintf("got HTML page %q instead of CSV: %s", title, truncate(text))
}

// snippet returns the start of a response body for diagnostics
func snippet(body []byte) string {
	return truncate(strings.TrimSpace(string(body)))
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= snippetLen {
		return s
	}
	return string(r[:snippetLen]) + "…"
}
