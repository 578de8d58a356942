package cli

import (
	"fmt"

	"github.com/pfrederiksen/poker-calendar/internal/config"
	"github.com/pfrederiksen/poker-calendar/internal/convert"
	"github.com/pfrederiksen/poker-calendar/internal/logger"
	"github.com/pfrederiksen/poker-calendar/internal/metrics"
	"github.com/pfrederiksen/poker-calendar/internal/rates"
	"github.com/pfrederiksen/poker-calendar/internal/schedule"
	"github.com/pfrederiksen/poker-calendar/internal/sheet"
	"github.com/pfrederiksen/poker-calendar/internal/storage"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg      *config.Config
	metrics  *metrics.Metrics
	rates    *rates.Cache
	pipeline *schedule.Pipeline
}

// newApp wires the pipeline from cfg. The rate cache lives as long as the
// app, so a serving process refreshes rates at most once per TTL.
func newApp(cfg *config.Config) (*app, error) {
	cache := rates.NewCache(
		rates.NewSource(cfg.Rates.URL, cfg.Rates.UserAgent, cfg.Rates.Timeout),
		cfg.Rates.TTL,
	)
	cache.ServeStale = cfg.Rates.ServeStale

	if cfg.Rates.ServeStale {
		store, err := storage.New(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}
		cache.Store = store
		logger.Debug("Stale rate fallback enabled", logger.Fields{"data_dir": store.Dir()})
	}

	m := metrics.New()

	p := schedule.New(sheet.NewFetcher(cfg.Sheet.URL, cfg.Sheet.UserAgent, cfg.Sheet.Timeout), cache)
	p.Normalizer = convert.NewNormalizer(cfg.Rates.StableAliases)
	p.Metrics = m

	return &app{
		cfg:      cfg,
		metrics:  m,
		rates:    cache,
		pipeline: p,
	}, nil
}
