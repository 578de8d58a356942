package rates

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// stubFetcher returns queued tables or errors and counts calls
type stubFetcher struct {
	mu    sync.Mutex
	calls int
	table *Table
	err   error
}

func (f *stubFetcher) Fetch(ctx context.Context) (*Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	// hand out a copy so swaps are observable
	t := *f.table
	return &t, nil
}

// memStore is an in-memory Persister
type memStore struct {
	saved *Table
}

func (m *memStore) LoadRates() (*Table, error) { return m.saved, nil }
func (m *memStore) SaveRates(t *Table) error  { m.saved = t; return nil }

// fakeClock is a settable clock
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestCache(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	failure := errors.Join(ErrRateSourceUnavailable, errors.New("http 500"))

	t.Run("fetches once per window", func(t *testing.T) {
		clock := &fakeClock{now: start}
		f := &stubFetcher{table: &Table{Rates: map[string]float64{"TWD": 32}, FetchedAt: start}}
		c := NewCache(f, 0)
		c.Now = clock.Now

		for i := 0; i < 3; i++ {
			if _, err := c.Get(context.Background()); err != nil {
				t.Fatalf("Get() error = %v", err)
			}
		}
		if f.calls != 1 {
			t.Errorf("fetch calls = %d, want 1", f.calls)
		}

		clock.now = start.Add(DefaultTTL)
		f.table = &Table{Rates: map[string]float64{"TWD": 31}, FetchedAt: clock.now}
		table, err := c.Get(context.Background())
		if err != nil {
			t.Fatalf("Get() after expiry error = %v", err)
		}
		if f.calls != 2 {
			t.Errorf("fetch calls after expiry = %d, want 2", f.calls)
		}
		if rate, _ := table.Rate("TWD"); rate != 31 {
			t.Errorf("Rate(TWD) after refresh = %v, want 31", rate)
		}
	})

	t.Run("failure without stale fallback", func(t *testing.T) {
		clock := &fakeClock{now: start}
		f := &stubFetcher{table: &Table{Rates: map[string]float64{"TWD": 32}, FetchedAt: start}}
		c := NewCache(f, time.Hour)
		c.Now = clock.Now

		if _, err := c.Get(context.Background()); err != nil {
			t.Fatalf("Get() error = %v", err)
		}

		clock.now = start.Add(2 * time.Hour)
		f.err = failure
		if _, err := c.Get(context.Background()); !errors.Is(err, ErrRateSourceUnavailable) {
			t.Errorf("Get() error = %v, want ErrRateSourceUnavailable", err)
		}
	})

	t.Run("stale fallback serves previous table", func(t *testing.T) {
		clock := &fakeClock{now: start}
		f := &stubFetcher{table: &Table{Rates: map[string]float64{"TWD": 32}, FetchedAt: start}}
		c := NewCache(f, time.Hour)
		c.Now = clock.Now
		c.ServeStale = true

		if _, err := c.Get(context.Background()); err != nil {
			t.Fatalf("Get() error = %v", err)
		}

		clock.now = start.Add(2 * time.Hour)
		f.err = failure
		table, err := c.Get(context.Background())
		if err != nil {
			t.Fatalf("Get() with stale fallback error = %v", err)
		}
		if rate, _ := table.Rate("TWD"); rate != 32 {
			t.Errorf("Rate(TWD) = %v, want 32", rate)
		}
	})

	t.Run("stale fallback loads persisted table", func(t *testing.T) {
		store := &memStore{saved: &Table{Rates: map[string]float64{"KRW": 1400}, FetchedAt: start}}
		c := NewCache(&stubFetcher{err: failure}, time.Hour)
		c.ServeStale = true
		c.Store = store

		table, err := c.Get(context.Background())
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if rate, _ := table.Rate("KRW"); rate != 1400 {
			t.Errorf("Rate(KRW) = %v, want 1400", rate)
		}
	})

	t.Run("persists fetched tables", func(t *testing.T) {
		store := &memStore{}
		c := NewCache(&stubFetcher{table: &Table{Rates: map[string]float64{"JPY": 150}}}, time.Hour)
		c.Store = store

		if _, err := c.Get(context.Background()); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if store.saved == nil {
			t.Fatal("expected table to be saved")
		}
		if store.saved.FetchedAt.IsZero() {
			t.Error("saved table should carry a fetch time")
		}
	})
}

func TestCache_Current(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &stubFetcher{table: &Table{Base: Base, Rates: map[string]float64{"TWD": 32}, FetchedAt: start}}

	c := NewCache(f, 0)
	if c.TTL() != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", c.TTL(), DefaultTTL)
	}
	if got := NewCache(f, time.Hour).TTL(); got != time.Hour {
		t.Errorf("TTL() = %v, want 1h", got)
	}

	if c.Current() != nil {
		t.Fatal("Current() before any Get should be nil")
	}
	if f.calls != 0 {
		t.Fatalf("Current() fetched %d times, want 0", f.calls)
	}

	got, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if c.Current() != got {
		t.Error("Current() should return the table Get stored")
	}
	if f.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", f.calls)
	}
}

func TestCache_ConcurrentReaders(t *testing.T) {
	f := &stubFetcher{table: &Table{Rates: map[string]float64{"TWD": 32}}}
	c := NewCache(f, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, err := c.Get(context.Background())
			if err != nil {
				t.Errorf("Get() error = %v", err)
				return
			}
			if rate, ok := table.Rate("TWD"); !ok || rate != 32 {
				t.Errorf("Rate(TWD) = %v, %v", rate, ok)
			}
		}()
	}
	wg.Wait()
}
