// Package config loads poker-calendar settings from a YAML file and the
// environment.
//
// Environment variables override the file: SHEET_CSV_URL, RATES_URL,
// RATES_SERVE_STALE, LISTEN_ADDRESS, LOG_LEVEL and DATA_DIR. A missing
// schedule URL is not a load error; it is reported on every request as
// ErrConfigurationMissing.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrConfigurationMissing is returned when the schedule URL is not set.
var ErrConfigurationMissing = errors.New("missing SHEET_CSV_URL")

type Sheet struct {
	URL       string        `yaml:"url" validate:"omitempty,url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type Rates struct {
	URL           string        `yaml:"url" validate:"required,url"`
	TTL           time.Duration `yaml:"ttl"`
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	ServeStale    bool          `yaml:"serve_stale"`
	StableAliases []string      `yaml:"stable_aliases" validate:"dive,required,alphanum"`
}

type Server struct {
	ListenAddress string        `yaml:"listen_address" validate:"required"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
}

type Log struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
}

type Config struct {
	Sheet   Sheet  `yaml:"sheet"`
	Rates   Rates  `yaml:"rates"`
	Server  Server `yaml:"server"`
	Log     Log    `yaml:"log"`
	DataDir string `yaml:"data_dir"`
}

// Load reads the YAML file at path, applies environment overrides and
// defaults, and validates the result. An empty path or a missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("parse yaml: %w", err)
			}
		}
	}

	if err := c.applyEnv(lookupEnv); err != nil {
		return nil, err
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	if v, ok := lookupEnv("SHEET_CSV_URL"); ok {
		c.Sheet.URL = strings.TrimSpace(v)
	}
	if v, ok := lookupEnv("RATES_URL"); ok && strings.TrimSpace(v) != "" {
		c.Rates.URL = strings.TrimSpace(v)
	}
	if v, ok := lookupEnv("RATES_SERVE_STALE"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("RATES_SERVE_STALE: %w", err)
		}
		c.Rates.ServeStale = b
	}
	if v, ok := lookupEnv("LISTEN_ADDRESS"); ok && strings.TrimSpace(v) != "" {
		c.Server.ListenAddress = strings.TrimSpace(v)
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		c.Log.Level = strings.TrimSpace(v)
	}
	if v, ok := lookupEnv("DATA_DIR"); ok && strings.TrimSpace(v) != "" {
		c.DataDir = strings.TrimSpace(v)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Sheet.Timeout == 0 {
		c.Sheet.Timeout = 30 * time.Second
	}
	if c.Rates.URL == "" {
		c.Rates.URL = "https://open.er-api.com/v6/latest/USD"
	}
	if c.Rates.TTL == 0 {
		c.Rates.TTL = 24 * time.Hour
	}
	if c.Rates.Timeout == 0 {
		c.Rates.Timeout = 10 * time.Second
	}
	if c.Rates.StableAliases == nil {
		c.Rates.StableAliases = []string{"USDT", "USDC"}
	}
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.DataDir == "" {
		c.DataDir = "~/.local/share/poker-calendar"
	}
}

// Validate checks field formats. It does not require the schedule URL.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Rates.TTL < 0 || c.Sheet.Timeout < 0 || c.Rates.Timeout < 0 {
		return errors.New("invalid config: durations must not be negative")
	}
	return nil
}

// RequireSheetURL returns ErrConfigurationMissing when no schedule URL is set.
func (c *Config) RequireSheetURL() error {
	if strings.TrimSpace(c.Sheet.URL) == "" {
		return ErrConfigurationMissing
	}
	return nil
}
