// Package config loads the PortPal settings file
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ngmaloney/portpal/internal/aisfeed"
	"github.com/ngmaloney/portpal/internal/database"
	"github.com/ngmaloney/portpal/internal/notify"
	"github.com/ngmaloney/portpal/internal/timers"
)

const (
	appName  = "portpal"
	fileName = "config.yaml"

	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// AIS configures the live position feed
type AIS struct {
	APIKey            string        `yaml:"api_key"`
	URL               string        `yaml:"url" validate:"required,url"`
	StalenessTimeout  time.Duration `yaml:"staleness_timeout" validate:"gt=0s"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" validate:"gt=0s"`
	MaxReconnects     int           `yaml:"max_reconnects" validate:"gte=0"`
}

// Store selects where timers are persisted
type Store struct {
	Driver     string `yaml:"driver" validate:"oneof=sqlite redis"`
	SQLitePath string `yaml:"sqlite_path" validate:"required_if=Driver sqlite"`
	RedisAddr  string `yaml:"redis_addr" validate:"required_if=Driver redis"`
	RedisDB    int    `yaml:"redis_db" validate:"gte=0,lte=15"`
}

// Monitor configures the countdown loop
type Monitor struct {
	TickInterval time.Duration `yaml:"tick_interval" validate:"gte=1s"`
}

// Ports configures the port coordinate index
type Ports struct {
	// Shapefile is a World Port Index .shp or .zip; empty uses the built-in list
	Shapefile string `yaml:"shapefile"`
	// Geocode looks unknown ports up on OpenStreetMap Nominatim
	Geocode bool `yaml:"geocode"`
}

// Config is the whole settings file
type Config struct {
	AIS         AIS             `yaml:"ais"`
	Store       Store           `yaml:"store"`
	Alerts      notify.Settings `yaml:"alerts"`
	Monitor     Monitor         `yaml:"monitor"`
	Ports       Ports           `yaml:"ports"`
	LogLevel    string          `yaml:"log_level" validate:"oneof=trace debug info warn warning error fatal panic"`
	UseLiveData bool            `yaml:"use_live_data"`
	// MetricsAddr serves Prometheus metrics when set, e.g. "127.0.0.1:9464"
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the settings used when no file exists
func Default() Config {
	feed := aisfeed.DefaultConfig()
	return Config{
		AIS: AIS{
			URL:               feed.URL,
			StalenessTimeout:  feed.StalenessTimeout,
			HeartbeatInterval: feed.HeartbeatInterval,
			MaxReconnects:     feed.MaxReconnects,
		},
		Store: Store{
			Driver:     DriverSQLite,
			SQLitePath: database.DBPath(),
		},
		Alerts:      notify.DefaultSettings(),
		Ports:       Ports{Geocode: true},
		Monitor:     Monitor{TickInterval: timers.DefaultTickInterval},
		LogLevel:    "info",
		UseLiveData: true,
	}
}

// Dir returns the directory holding the settings file
func Dir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the default settings file location
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads path (the default location when empty) over the defaults,
// applies environment overrides and validates the result. A missing file
// is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveAlerts writes the alert lead times into the settings file at path
// (the default location when empty), leaving its other keys alone
func SaveAlerts(path string, alerts notify.Settings) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}

	doc := map[string]any{}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	}
	doc["alerts"] = alerts

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks the settings
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// FeedConfig converts the AIS section for the feed client
func (c Config) FeedConfig() aisfeed.Config {
	feed := aisfeed.DefaultConfig()
	feed.URL = c.AIS.URL
	feed.APIKey = c.AIS.APIKey
	feed.StalenessTimeout = c.AIS.StalenessTimeout
	feed.HeartbeatInterval = c.AIS.HeartbeatInterval
	feed.MaxReconnects = c.AIS.MaxReconnects
	return feed
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("AIS_STREAM_API_KEY"); v != "" {
		cfg.AIS.APIKey = v
	}
	if v := os.Getenv("PORTPAL_STORE"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("PORTPAL_DB_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("PORTPAL_REDIS_ADDR"); v != "" {
		cfg.Store.RedisAddr = v
	}
	if v := os.Getenv("PORTPAL_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORTPAL_REDIS_DB: %w", err)
		}
		cfg.Store.RedisDB = n
	}
	if v := os.Getenv("PORTPAL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}
