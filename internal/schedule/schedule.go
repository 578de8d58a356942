package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/pfrederiksen/poker-calendar/internal/config"
	"github.com/pfrederiksen/poker-calendar/internal/convert"
	"github.com/pfrederiksen/poker-calendar/internal/event"
	"github.com/pfrederiksen/poker-calendar/internal/logger"
	"github.com/pfrederiksen/poker-calendar/internal/metrics"
	"github.com/pfrederiksen/poker-calendar/internal/rates"
	"github.com/pfrederiksen/poker-calendar/internal/sheet"
)

// SourceFetcher returns the raw schedule text.
type SourceFetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// RateProvider returns a current rate table.
type RateProvider interface {
	Get(ctx context.Context) (*rates.Table, error)
}

// Pipeline assembles schedules. It holds no per-request state, so one
// Pipeline serves concurrent requests.
type Pipeline struct {
	Source     SourceFetcher
	Rates      RateProvider
	Normalizer *convert.Normalizer
	// Metrics is optional.
	Metrics *metrics.Metrics
	// Now is the clock used for the recency rule.
	Now func() time.Time
}

// New creates a Pipeline with the default stable-asset aliases.
func New(source SourceFetcher, rateProvider RateProvider) *Pipeline {
	return &Pipeline{
		Source:     source,
		Rates:      rateProvider,
		Normalizer: convert.NewNormalizer(nil),
		Now:        time.Now,
	}
}

// Run executes one full pipeline pass.
func (p *Pipeline) Run(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	snap, err := p.run(ctx)
	if p.Metrics != nil {
		p.Metrics.RunDuration.Observe(time.Since(start).Seconds())
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		p.Metrics.Runs.WithLabelValues(outcome).Inc()
	}
	return snap, err
}

func (p *Pipeline) run(ctx context.Context) (*Snapshot, error) {
	if u, ok := p.Source.(interface{ URL() string }); ok && u.URL() == "" {
		return nil, config.ErrConfigurationMissing
	}

	var (
		text    string
		srcErr  error
		table   *rates.Table
		rateErr error
		wg      sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		text, srcErr = p.Source.Fetch(ctx)
		p.countFetch("sheet", srcErr)
	}()

	if p.Rates != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, rateErr = p.Rates.Get(ctx)
			p.countFetch("rates", rateErr)
		}()
	}

	wg.Wait()

	if srcErr != nil {
		return nil, srcErr
	}
	if rateErr != nil {
		return nil, rateErr
	}

	now := p.now()

	parsed := sheet.Parse(text)
	filtered := event.Filter(parsed.Rows, now)
	event.Sort(filtered.Events)
	missing := p.normalizer().Apply(filtered.Events, table)

	snap := Assemble(filtered.Events, now)
	snap.Dropped = filtered.Dropped
	snap.MissingUSD = missing
	snap.Malformed = parsed.Malformed
	if table != nil {
		snap.RatesFetchedAt = table.FetchedAt
	}

	p.record(snap, len(parsed.Rows))
	return snap, nil
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Pipeline) normalizer() *convert.Normalizer {
	if p.Normalizer == nil {
		return convert.NewNormalizer(nil)
	}
	return p.Normalizer
}

func (p *Pipeline) countFetch(source string, err error) {
	if p.Metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.Metrics.Fetches.WithLabelValues(source, status).Inc()
}

// record logs and exports the counts of one successful run
func (p *Pipeline) record(snap *Snapshot, parsed int) {
	dropped := 0
	fields := logger.Fields{
		"parsed":      parsed,
		"rows":        len(snap.Rows),
		"missing_usd": snap.MissingUSD,
	}
	for reason, n := range snap.Dropped {
		dropped += n
		fields["dropped_"+string(reason)] = n
	}
	if snap.Malformed > 0 {
		fields["malformed"] = snap.Malformed
	}
	logger.Debug("Schedule assembled", fields)

	if p.Metrics == nil {
		return
	}
	for reason, n := range snap.Dropped {
		p.Metrics.RowsDropped.WithLabelValues(string(reason)).Add(float64(n))
	}
	p.Metrics.RowsServed.Set(float64(len(snap.Rows)))
	p.Metrics.MissingUSD.Add(float64(snap.MissingUSD))
	p.Metrics.MalformedLines.Add(float64(snap.Malformed))
	if !snap.RatesFetchedAt.IsZero() {
		p.Metrics.RateTableAge.Set(snap.GeneratedAt.Sub(snap.RatesFetchedAt).Seconds())
	}
}
