package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-search/internal/cache"
	"github.com/i474232898/weather-search/internal/config"
	"github.com/i474232898/weather-search/internal/history"
	"github.com/i474232898/weather-search/internal/scheduler"
	"github.com/i474232898/weather-search/internal/store"
	"github.com/i474232898/weather-search/internal/ui"
	"github.com/i474232898/weather-search/internal/weather"
	"github.com/i474232898/weather-search/internal/weather/providers"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is the whole program. It returns the exit status instead of exiting so
// deferred cleanup (history database, log file, scheduler) always runs.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("weather", flag.ContinueOnError)
	fs.SetOutput(stderr)
	units := fs.String("units", "", "metric or imperial (overrides WEATHER_UNITS)")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	showHistory := fs.Bool("history", false, "print recent searches and exit")
	metricsAddr := fs.String("metrics-addr", "", "serve cache metrics on this address in interactive mode")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: weather [flags] [city]\n\nWithout a city the interactive search is started.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	if *units != "" {
		cfg.Units = strings.ToLower(*units)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(stderr, "invalid -units: %v\n", err)
			return 2
		}
	}

	city := strings.Join(fs.Args(), " ")
	interactive := !*showHistory && strings.TrimSpace(city) == ""

	logger, closeLog, err := newLogger(cfg, interactive, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "failed to open log: %v\n", err)
		return 1
	}
	defer closeLog()
	slog.SetDefault(logger)

	// Recent searches survive restarts when a database path is configured.
	var kv store.KV = store.NewMemoryStore()
	if cfg.HistoryDB != "" {
		db, err := openHistoryDB(cfg.HistoryDB)
		if err != nil {
			fmt.Fprintf(stderr, "failed to open history database: %v\n", err)
			return 1
		}
		defer db.Close()
		kv = db
	}
	hist := history.New(kv, logger)

	if *showHistory {
		fmt.Fprint(stdout, ui.RenderHistory(hist.Load()))
		return 0
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey,
		providers.WithBaseURL(cfg.OpenWeatherBaseURL),
		providers.WithUnits(cfg.WeatherUnits()),
		providers.WithLogger(logger),
	)
	if cfg.OpenWeatherAPIKey == "" {
		logger.Warn("OPENWEATHER_API_KEY is not set; searches will fail as unauthorized")
	}

	reg := prometheus.NewRegistry()
	queryCache := cache.New(provider, cache.Options{
		FreshFor:   cfg.CacheFreshFor,
		MaxIdle:    cfg.CacheMaxIdle,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		Metrics:    cache.NewMetrics(reg),
	})

	service := weather.NewService(queryCache, hist, logger)

	if !interactive {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		report := service.Search(ctx, city)
		if err := printReport(stdout, report, cfg.WeatherUnits(), *asJSON); err != nil {
			fmt.Fprintf(stderr, "failed to write report: %v\n", err)
			return 1
		}
		return exitCode(report)
	}

	// Background warmer for recently searched cities.
	sched := scheduler.New(service, cfg.RefreshInterval, logger)
	if err := sched.Start(); err != nil {
		fmt.Fprintf(stderr, "failed to start scheduler: %v\n", err)
		return 1
	}
	defer sched.Stop()

	if *metricsAddr != "" {
		srv := &http.Server{
			Addr:              *metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	err = ui.Run(service, ui.Options{
		Units:         cfg.WeatherUnits(),
		Location:      time.Local,
		Dark:          lipgloss.HasDarkBackground(),
		SearchTimeout: 2*cfg.HTTPTimeout + cfg.RetryDelay,
	})
	if err != nil {
		logger.Error("interactive session failed", "error", err)
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// exitCode is 1 when the current weather could not be shown. A failed
// forecast alone still counts as success.
func exitCode(r weather.Report) int {
	if r.CurrentErr != nil {
		return 1
	}
	return 0
}

// openHistoryDB creates the parent directory of path before opening it.
func openHistoryDB(path string) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	return store.NewSQLite(path)
}

// newLogger writes to LOG_FILE in interactive mode so the log does not draw
// over the terminal UI, and to stderr otherwise.
func newLogger(cfg *config.AppConfig, interactive bool, stderr io.Writer) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if !interactive || cfg.LogFile == "" {
		if interactive {
			return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}, nil
		}
		return slog.New(slog.NewTextHandler(stderr, opts)), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewJSONHandler(f, opts)), func() { _ = f.Close() }, nil
}

func printReport(w io.Writer, r weather.Report, units weather.Units, asJSON bool) error {
	if !asJSON {
		_, err := io.WriteString(w, ui.RenderReport(r, units, time.Local))
		return err
	}

	out := struct {
		weather.Report
		Units         weather.Units `json:"units"`
		Error         string        `json:"error,omitempty"`
		ForecastError string        `json:"forecastError,omitempty"`
	}{
		Report:        r,
		Units:         units,
		Error:         weather.MessageFor(r.CurrentErr),
		ForecastError: weather.MessageFor(r.ForecastErr),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
