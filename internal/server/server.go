package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/pfrederiksen/poker-calendar/internal/calendar"
	"github.com/pfrederiksen/poker-calendar/internal/config"
	"github.com/pfrederiksen/poker-calendar/internal/filter"
	"github.com/pfrederiksen/poker-calendar/internal/logger"
	"github.com/pfrederiksen/poker-calendar/internal/metrics"
	"github.com/pfrederiksen/poker-calendar/internal/rates"
	"github.com/pfrederiksen/poker-calendar/internal/schedule"
)

// Runner produces one schedule snapshot per call.
type Runner interface {
	Run(ctx context.Context) (*schedule.Snapshot, error)
}

// RateStatus reports the rate table currently cached, without refreshing it.
type RateStatus interface {
	Current() *rates.Table
	TTL() time.Duration
}

type Server struct {
	runner  Runner
	metrics *metrics.Metrics

	mux    *http.ServeMux
	server *http.Server

	// Rates backs /api/rates; the route answers 404 while it is nil.
	Rates RateStatus
	// Now is the clock used to interpret relative date ranges.
	Now func() time.Time
}

// New creates a Server listening on cfg.ListenAddress. m may be nil, in
// which case /metrics is not served.
func New(cfg config.Server, runner Runner, m *metrics.Metrics) *Server {
	mux := http.NewServeMux()
	s := &Server{
		runner:  runner,
		metrics: m,
		mux:     mux,
		Now:     time.Now,
	}

	mux.HandleFunc("GET /api/schedule", s.handleSchedule)
	mux.HandleFunc("GET /api/locations", s.handleLocations)
	mux.HandleFunc("GET /schedule.ics", s.handleICS)
	mux.HandleFunc("GET /api/rates", s.handleRates)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	s.server = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the routes wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return withRequestID(s.mux)
}

func (s *Server) Addr() string { return s.server.Addr }

// Serve blocks until the server stops. It returns nil after Shutdown.
func (s *Server) Serve() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return s.server.Shutdown(ctx) }

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	q, err := filter.FromValues(r.URL.Query(), s.Now())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	snap, err := s.runner.Run(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if !q.IsEmpty() {
		snap = snap.WithRows(q.Apply(snap.Rows))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := snap.WriteJSON(w); err != nil {
		logger.Warn("Writing response failed", logger.Fields{
			"request_id": requestID(r.Context()),
			"error":      err.Error(),
		})
	}
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	snap, err := s.runner.Run(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{
		"locations": filter.Locations(snap.Rows),
	})
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	q, err := filter.FromValues(r.URL.Query(), s.Now())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	snap, err := s.runner.Run(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	cal := calendar.Build(q.Apply(snap.Rows), snap.GeneratedAt)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="poker-calendar.ics"`)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		logger.Warn("Writing calendar failed", logger.Fields{
			"request_id": requestID(r.Context()),
			"error":      err.Error(),
		})
	}
}

type rateStatus struct {
	Base       string    `json:"base"`
	FetchedAt  time.Time `json:"fetched_at"`
	AgeSeconds int64     `json:"age_seconds"`
	TTLSeconds int64     `json:"ttl_seconds"`
	Stale      bool      `json:"stale"`
	Currencies int       `json:"currencies"`
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if s.Rates == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "rate status not available"})
		return
	}

	t := s.Rates.Current()
	if t == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no rate table fetched yet"})
		return
	}

	ttl := s.Rates.TTL()
	age := t.Age(s.Now())
	writeJSON(w, http.StatusOK, rateStatus{
		Base:       t.Base,
		FetchedAt:  t.FetchedAt.UTC(),
		AgeSeconds: int64(age / time.Second),
		TTLSeconds: int64(ttl / time.Second),
		Stale:      age >= ttl,
		Currencies: len(t.Rates),
	})
}

// writeError logs err and sends {"error": message}.
func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger.Error("Request failed", logger.Fields{
		"request_id": requestID(r.Context()),
		"path":       r.URL.Path,
		"status":     status,
	}, err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
