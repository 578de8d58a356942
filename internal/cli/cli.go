package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/poker-calendar/internal/calendar"
	"github.com/pfrederiksen/poker-calendar/internal/config"
	"github.com/pfrederiksen/poker-calendar/internal/filter"
	"github.com/pfrederiksen/poker-calendar/internal/logger"
	"github.com/pfrederiksen/poker-calendar/internal/server"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig   string
	flagVerbose  bool
	flagListen   string
	flagFormat   string
	flagSort     string
	flagLocation string
	flagSearch   string
	flagWhen     string
	flagOutput   string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poker-calendar",
		Short: "Upcoming poker tournaments with buy-ins in USD",
		Long: `Publishes the upcoming poker tournament schedule from a shared
spreadsheet, dropping events that ended more than three days ago and
converting every buy-in to US dollars.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd(), newFetchCmd(), newICSCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the schedule over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (overrides config, e.g. :8080)")
	return cmd
}

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run the pipeline once and print the schedule",
		Args:  cobra.NoArgs,
		RunE:  runFetch,
	}
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text, json or markdown")
	cmd.Flags().StringVar(&flagSort, "sort", "date", "Sort order: date, location or tournament")
	addFilterFlags(cmd)
	return cmd
}

func newICSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Export the schedule as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE:  runICS,
	}
	cmd.Flags().StringVar(&flagOutput, "output", "", "Write to file instead of stdout")
	addFilterFlags(cmd)
	return cmd
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagLocation, "location", "", "Location, or Taiwan/Korea to match by keyword")
	cmd.Flags().StringVar(&flagSearch, "search", "", "Search tournament and location")
	cmd.Flags().StringVar(&flagWhen, "when", "", "Date range, e.g. 'Mar 1-15' or 'March'")
}

// setup loads configuration, installs the logger and wires the app
func setup() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, os.Stderr))

	return newApp(cfg)
}

func query(now time.Time) (filter.Query, error) {
	q := filter.Query{
		Location: strings.TrimSpace(flagLocation),
		Search:   strings.TrimSpace(flagSearch),
	}
	if when := strings.TrimSpace(flagWhen); when != "" {
		from, to, err := filter.ParseDateRange(when, now)
		if err != nil {
			return filter.Query{}, err
		}
		q.DateFrom, q.DateTo = from, to
	}
	return q, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}

	cfg := a.cfg.Server
	if flagListen != "" {
		cfg.ListenAddress = flagListen
	}
	if err := a.cfg.RequireSheetURL(); err != nil {
		logger.Warn("Schedule URL not configured; requests will fail until SHEET_CSV_URL is set", nil)
	}

	srv := server.New(cfg, a.pipeline, a.metrics)
	srv.Rates = a.rates

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()
	logger.Info("Listening", logger.Fields{"address": srv.Addr()})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runFetch(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON && format != FormatMarkdown {
		return fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'markdown')", flagFormat)
	}
	order := SortOrder(strings.ToLower(flagSort))
	if order != SortByDate && order != SortByLocation && order != SortByTournament {
		return fmt.Errorf("invalid sort: %s (must be 'date', 'location' or 'tournament')", flagSort)
	}

	a, err := setup()
	if err != nil {
		return err
	}
	q, err := query(a.pipeline.Now())
	if err != nil {
		return err
	}

	snap, err := a.pipeline.Run(cmd.Context())
	if err != nil {
		return err
	}

	rows := q.Apply(snap.Rows)
	sortEvents(rows, order)

	result := &OutputResult{
		GeneratedAt: snap.GeneratedAt,
		Filter:      q.String(),
		Rows:        rows,
		Dropped:     snap.Dropped,
	}
	return WriteOutput(cmd.OutOrStdout(), result, format, flagVerbose)
}

func runICS(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	q, err := query(a.pipeline.Now())
	if err != nil {
		return err
	}

	snap, err := a.pipeline.Run(cmd.Context())
	if err != nil {
		return err
	}
	rows := q.Apply(snap.Rows)
	out := calendar.GenerateICS(rows, snap.GeneratedAt)

	if flagOutput == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), out)
		return err
	}
	if err := os.WriteFile(flagOutput, []byte(out), 0644); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	logger.Info("Calendar written", logger.Fields{"path": flagOutput, "events": len(rows)})
	return nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
