package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/i474232898/weather-search/internal/weather"
)

type AppConfig struct {
	// OpenWeatherAPIKey may be empty; searches then fail with the
	// unauthorized message instead of the program refusing to start.
	OpenWeatherAPIKey  string `envconfig:"OPENWEATHER_API_KEY"`
	OpenWeatherBaseURL string `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org/data/2.5" validate:"required,url"`

	Units       string        `envconfig:"WEATHER_UNITS" default:"metric" validate:"oneof=metric imperial"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`

	// Query cache tuning.
	CacheFreshFor time.Duration `envconfig:"CACHE_FRESH_FOR" default:"5m" validate:"gt=0"`
	CacheMaxIdle  time.Duration `envconfig:"CACHE_MAX_IDLE" default:"30m" validate:"gtfield=CacheFreshFor"`
	RetryDelay    time.Duration `envconfig:"RETRY_DELAY" default:"1s" validate:"gte=0"`

	// RefreshInterval controls how often recent searches are re-fetched in
	// the background (0 disables).
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"15m" validate:"gte=0"`

	// HistoryDB is the SQLite file holding recent searches; empty keeps them
	// in memory. Unset means history.db under the user config directory.
	HistoryDB string `envconfig:"HISTORY_DB"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	// LogFile receives the log in interactive mode; empty discards it. Unset
	// means weather.log under the user cache directory.
	LogFile string `envconfig:"LOG_FILE"`
}

// appDir names the per-user directories the default paths live in.
const appDir = "weather-search"

// Load reads configuration from the environment (and .env, when present)
// with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.Units = strings.ToLower(strings.TrimSpace(cfg.Units))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.applyPathDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyPathDefaults fills HistoryDB and LogFile when their variables are
// unset. A set but empty variable is left alone. When the user directory
// cannot be determined the field stays empty.
func (c *AppConfig) applyPathDefaults() {
	if _, ok := os.LookupEnv("HISTORY_DB"); !ok {
		c.HistoryDB = userPath(os.UserConfigDir, "history.db")
	}
	if _, ok := os.LookupEnv("LOG_FILE"); !ok {
		c.LogFile = userPath(os.UserCacheDir, "weather.log")
	}
}

func userPath(base func() (string, error), name string) string {
	dir, err := base()
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, appDir, name)
}

// Validate checks field constraints.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// WeatherUnits returns the configured unit system.
func (c *AppConfig) WeatherUnits() weather.Units {
	if c.Units == string(weather.UnitsImperial) {
		return weather.UnitsImperial
	}
	return weather.UnitsMetric
}

// SlogLevel returns the configured log level.
func (c *AppConfig) SlogLevel() slog.Level {
	return ParseLevel(c.LogLevel)
}

// ParseLevel maps a level name onto slog; unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
