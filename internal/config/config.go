// Package config loads isstrack configuration from an optional YAML file and
// ISSTRACK_* environment variables. Invalid environment values are logged
// and ignored; structural problems are reported by Validate.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/star/isstrack/internal/chart"
	"github.com/star/isstrack/internal/poller"
	"github.com/star/isstrack/internal/series"
	"github.com/star/isstrack/internal/telemetry"
	"github.com/star/isstrack/internal/tle"
)

// Source kinds.
const (
	SourceAPI  = "api"
	SourceSGP4 = "sgp4"
)

type Config struct {
	HTTP     HTTPConfig   `yaml:"http"`
	Poll     PollConfig   `yaml:"poll"`
	Series   SeriesConfig `yaml:"series"`
	Source   SourceConfig `yaml:"source"`
	Charts   chart.Config `yaml:"charts"`
	Stream   StreamConfig `yaml:"stream"`
	LogLevel string       `yaml:"log_level"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	Overlap  string        `yaml:"overlap"`
}

type SeriesConfig struct {
	Capacity int `yaml:"capacity"`
}

type SourceConfig struct {
	Kind         string        `yaml:"kind"`
	PositionURL  string        `yaml:"position_url"`
	TelemetryURL string        `yaml:"telemetry_url"`
	TLEURL       string        `yaml:"tle_url"`
	NORADID      int           `yaml:"norad_id"`
	TLEMaxAge    time.Duration `yaml:"tle_max_age"`
}

type StreamConfig struct {
	MaxConcurrentPerIP int           `yaml:"max_concurrent_per_ip"`
	KeepaliveInterval  time.Duration `yaml:"keepalive_interval"`
	TrustProxy         bool          `yaml:"trust_proxy"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{Addr: ":8080"},
		Poll: PollConfig{
			Interval: 5 * time.Second,
			Timeout:  4 * time.Second,
			Overlap:  string(poller.OverlapSkip),
		},
		Series: SeriesConfig{Capacity: series.DefaultCapacity},
		Source: SourceConfig{
			Kind:         SourceAPI,
			PositionURL:  telemetry.DefaultPositionURL,
			TelemetryURL: telemetry.DefaultTelemetryURL,
			TLEURL:       tle.DefaultSourceURL,
			NORADID:      25544,
			TLEMaxAge:    24 * time.Hour,
		},
		Charts: chart.DefaultConfig(),
		Stream: StreamConfig{
			MaxConcurrentPerIP: 10,
			KeepaliveInterval:  30 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from ISSTRACK_* variables. Bad values are logged
// and the current value is kept.
func ApplyEnv(cfg *Config, logger *slog.Logger) {
	envString("ISSTRACK_HTTP_ADDR", &cfg.HTTP.Addr)
	envSeconds(logger, "ISSTRACK_POLL_INTERVAL", &cfg.Poll.Interval)
	envSeconds(logger, "ISSTRACK_POLL_TIMEOUT", &cfg.Poll.Timeout)
	envString("ISSTRACK_POLL_OVERLAP", &cfg.Poll.Overlap)
	envPositiveInt(logger, "ISSTRACK_SERIES_CAPACITY", &cfg.Series.Capacity)
	envString("ISSTRACK_SOURCE", &cfg.Source.Kind)
	envString("ISSTRACK_POSITION_URL", &cfg.Source.PositionURL)
	envString("ISSTRACK_TELEMETRY_URL", &cfg.Source.TelemetryURL)
	envString("ISSTRACK_TLE_URL", &cfg.Source.TLEURL)
	envPositiveInt(logger, "ISSTRACK_NORAD_ID", &cfg.Source.NORADID)
	envSeconds(logger, "ISSTRACK_TLE_MAX_AGE", &cfg.Source.TLEMaxAge)
	envPositiveInt(logger, "ISSTRACK_STREAM_MAX_CONCURRENT", &cfg.Stream.MaxConcurrentPerIP)
	envSeconds(logger, "ISSTRACK_STREAM_KEEPALIVE_INTERVAL", &cfg.Stream.KeepaliveInterval)
	envString("ISSTRACK_LOG_LEVEL", &cfg.LogLevel)

	if v := os.Getenv("ISSTRACK_TRUST_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ISSTRACK_TRUST_PROXY value, using current", "value", v, "current", cfg.Stream.TrustProxy)
		} else {
			cfg.Stream.TrustProxy = b
		}
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.TrimSpace(v)
	}
}

func envPositiveInt(logger *slog.Logger, key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		logger.Warn("invalid "+key+" value, using current", "value", v, "current", *dst)
		return
	}
	*dst = n
}

// envSeconds reads a whole number of seconds.
func envSeconds(logger *slog.Logger, key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		logger.Warn("invalid "+key+" value, using current", "value", v, "current_seconds", dst.Seconds())
		return
	}
	*dst = time.Duration(n) * time.Second
}

// Validate reports every structural problem in cfg.
func (c Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr must not be empty"))
	}
	if c.Poll.Interval <= 0 {
		errs = append(errs, errors.New("poll.interval must be positive"))
	}
	if c.Poll.Timeout <= 0 {
		errs = append(errs, errors.New("poll.timeout must be positive"))
	}
	if _, err := poller.ParseOverlap(c.Poll.Overlap); err != nil {
		errs = append(errs, fmt.Errorf("poll.overlap: %w", err))
	}
	if c.Series.Capacity < 1 {
		errs = append(errs, errors.New("series.capacity must be at least 1"))
	}
	switch c.Source.Kind {
	case SourceAPI, SourceSGP4:
	default:
		errs = append(errs, fmt.Errorf("source.kind %q must be %s or %s", c.Source.Kind, SourceAPI, SourceSGP4))
	}
	if c.Source.NORADID < 1 {
		errs = append(errs, errors.New("source.norad_id must be positive"))
	}
	if c.Charts.Speed.Min >= c.Charts.Speed.Max {
		errs = append(errs, errors.New("charts.speed.min must be below charts.speed.max"))
	}
	if c.Charts.Altitude.Min >= c.Charts.Altitude.Max {
		errs = append(errs, errors.New("charts.altitude.min must be below charts.altitude.max"))
	}
	if c.Charts.Width < 100 || c.Charts.Height < 100 {
		errs = append(errs, errors.New("charts.width and charts.height must be at least 100"))
	}
	if c.Stream.MaxConcurrentPerIP < 1 {
		errs = append(errs, errors.New("stream.max_concurrent_per_ip must be at least 1"))
	}
	if c.Stream.KeepaliveInterval <= 0 {
		errs = append(errs, errors.New("stream.keepalive_interval must be positive"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel maps a log level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level %q must be debug, info, warn or error", s)
}

// LogAttrs summarizes the effective configuration for the startup log line.
func (c Config) LogAttrs() []any {
	return []any{
		"addr", c.HTTP.Addr,
		"source", c.Source.Kind,
		"poll_interval_seconds", c.Poll.Interval.Seconds(),
		"poll_timeout_seconds", c.Poll.Timeout.Seconds(),
		"overlap", c.Poll.Overlap,
		"series_capacity", c.Series.Capacity,
		"stream_max_concurrent_per_ip", c.Stream.MaxConcurrentPerIP,
	}
}
