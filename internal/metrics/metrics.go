// Package metrics exposes Prometheus collectors for the schedule pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the pipeline collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	Runs           *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	Fetches        *prometheus.CounterVec
	RowsDropped    *prometheus.CounterVec
	RowsServed     prometheus.Gauge
	MissingUSD     prometheus.Counter
	RateTableAge   prometheus.Gauge
	MalformedLines prometheus.Counter
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{registry: reg}

	m.Runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poker_calendar",
		Name:      "pipeline_runs_total",
		Help:      "Schedule pipeline runs by outcome",
	}, []string{"outcome"})
	m.RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "poker_calendar",
		Name:      "pipeline_duration_seconds",
		Help:      "Time spent assembling one schedule",
		Buckets:   prometheus.DefBuckets,
	})
	m.Fetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poker_calendar",
		Name:      "source_fetches_total",
		Help:      "Outbound fetches by source and status",
	}, []string{"source", "status"})
	m.RowsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poker_calendar",
		Name:      "rows_dropped_total",
		Help:      "Sheet rows excluded from the schedule by reason",
	}, []string{"reason"})
	m.RowsServed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "poker_calendar",
		Name:      "rows_served",
		Help:      "Rows in the most recent schedule",
	})
	m.MissingUSD = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "poker_calendar",
		Name:      "conversions_unavailable_total",
		Help:      "Rows served without a USD amount",
	})
	m.RateTableAge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "poker_calendar",
		Name:      "rate_table_age_seconds",
		Help:      "Age of the rate table used by the most recent schedule",
	})
	m.MalformedLines = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "poker_calendar",
		Name:      "malformed_records_total",
		Help:      "CSV records the parser could not decode",
	})

	reg.MustRegister(
		m.Runs, m.RunDuration, m.Fetches, m.RowsDropped,
		m.RowsServed, m.MissingUSD, m.RateTableAge, m.MalformedLines,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
