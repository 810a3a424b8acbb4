// Package config loads application configuration from defaults, an optional
// YAML file and UPTIME_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides. Nested keys are
// separated by a double underscore: UPTIME_MONITOR__INTERVAL=1m.
const EnvPrefix = "UPTIME_"

// Config is the application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Log     LogConfig     `koanf:"log"`
	CORS    CORSConfig    `koanf:"cors"`
	Monitor MonitorConfig `koanf:"monitor"`
	Uptime  UptimeConfig  `koanf:"uptime"`
	Demo    DemoConfig    `koanf:"demo"`
}

// ServerConfig configures the API and metrics listeners.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// MonitorConfig configures the health prober.
type MonitorConfig struct {
	Enabled           bool          `koanf:"enabled"`
	Interval          time.Duration `koanf:"interval"`
	Timeout           time.Duration `koanf:"timeout"`
	DegradedThreshold time.Duration `koanf:"degraded_threshold"`
	MaxConcurrency    int           `koanf:"max_concurrency"`
	RateLimit         float64       `koanf:"rate_limit"`
	UserAgent         string        `koanf:"user_agent"`
}

// UptimeConfig configures uptime computation and history queries.
type UptimeConfig struct {
	WindowDays         int `koanf:"window_days"`
	DefaultHistoryDays int `koanf:"default_history_days"`
}

// Window returns the uptime window as a duration.
func (c UptimeConfig) Window() time.Duration {
	return time.Duration(c.WindowDays) * 24 * time.Hour
}

// DemoConfig toggles sample data at startup.
type DemoConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Monitor: MonitorConfig{
			Enabled:           true,
			Interval:          5 * time.Minute,
			Timeout:           10 * time.Second,
			DegradedThreshold: 2 * time.Second,
			MaxConcurrency:    0,
			RateLimit:         0,
			UserAgent:         "uptime-dashboard",
		},
		Uptime: UptimeConfig{
			WindowDays:         90,
			DefaultHistoryDays: 90,
		},
	}
}

// Load builds the configuration. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", c.Log.Format))
	}

	if c.Monitor.Interval <= 0 {
		errs = append(errs, errors.New("monitor.interval must be positive"))
	}
	if c.Monitor.Timeout <= 0 {
		errs = append(errs, errors.New("monitor.timeout must be positive"))
	}
	if c.Monitor.DegradedThreshold <= 0 {
		errs = append(errs, errors.New("monitor.degraded_threshold must be positive"))
	}
	if c.Monitor.MaxConcurrency < 0 {
		errs = append(errs, errors.New("monitor.max_concurrency must not be negative"))
	}
	if c.Monitor.RateLimit < 0 {
		errs = append(errs, errors.New("monitor.rate_limit must not be negative"))
	}

	if c.Uptime.WindowDays <= 0 {
		errs = append(errs, errors.New("uptime.window_days must be positive"))
	}
	if c.Uptime.DefaultHistoryDays <= 0 || c.Uptime.DefaultHistoryDays > 365 {
		errs = append(errs, errors.New("uptime.default_history_days must be between 1 and 365"))
	}

	return errors.Join(errs...)
}
