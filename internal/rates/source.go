package rates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// Base is the currency rate tables must be quoted against.
	Base       = "USD"
	DefaultURL = "https://open.er-api.com/v6/latest/USD"
	UserAgent  = "poker-calendar/1.0 (github.com/pfrederiksen/poker-calendar)"
	Timeout    = 10 * time.Second

	// maxBody bounds the provider response; a full table is a few KB.
	maxBody = 1 << 20
)

// ErrRateSourceUnavailable is returned when no rate table can be obtained.
var ErrRateSourceUnavailable = errors.New("rate source unavailable")

// Source fetches rate tables from an HTTP endpoint
type Source struct {
	url       string
	userAgent string
	client    *http.Client
}

// NewSource creates a Source. Empty arguments select the defaults.
func NewSource(url, userAgent string, timeout time.Duration) *Source {
	if url == "" {
		url = DefaultURL
	}
	if userAgent == "" {
		userAgent = UserAgent
	}
	if timeout <= 0 {
		timeout = Timeout
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &Source{
		url:       strings.TrimSpace(url),
		userAgent: userAgent,
		client: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
	}
}

// Fetch downloads the current rate table.
func (s *Source) Fetch(ctx context.Context) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrRateSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: http %d", ErrRateSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrRateSourceUnavailable, err)
	}

	table, err := Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateSourceUnavailable, err)
	}
	table.FetchedAt = time.Now().UTC()
	return table, nil
}

// Decode extracts a Table from a provider response of the form
// {"result": "success", "base_code": "USD", "rates": {"TWD": 32.1, ...}}.
// Only "rates" is required; a base_code other than USD is rejected.
// Non-numeric entries are skipped.
func Decode(body []byte) (*Table, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("response is not valid JSON")
	}

	if result := gjson.GetBytes(body, "result"); result.Exists() && result.String() != "success" {
		return nil, fmt.Errorf("provider result %q: %s", result.String(), gjson.GetBytes(body, "error-type").String())
	}

	rates := gjson.GetBytes(body, "rates")
	if !rates.IsObject() {
		return nil, errors.New("response has no rates object")
	}

	table := &Table{
		Base:  strings.ToUpper(strings.TrimSpace(gjson.GetBytes(body, "base_code").String())),
		Rates: make(map[string]float64),
	}
	if table.Base == "" {
		table.Base = Base
	}
	if table.Base != Base {
		return nil, fmt.Errorf("rates are quoted against %s, want %s", table.Base, Base)
	}

	rates.ForEach(func(code, value gjson.Result) bool {
		if value.Type == gjson.Number {
			table.Rates[strings.ToUpper(code.String())] = value.Float()
		}
		return true
	})

	return table, nil
}
