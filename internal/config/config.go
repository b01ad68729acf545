// Package config loads the client configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete client configuration
type Config struct {
	Server   Server   `yaml:"server"`
	Realtime Realtime `yaml:"realtime"`
	Retry    Retry    `yaml:"retry"`
	Storage  Storage  `yaml:"storage"`
	Links    Links    `yaml:"links"`
	Logging  Logging  `yaml:"logging"`
	Metrics  Metrics  `yaml:"metrics"`
}

// Server contains remote API settings
type Server struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Realtime contains push channel settings
type Realtime struct {
	URL              string        `yaml:"url"` // пусто: выводится из server.url
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	Disabled         bool          `yaml:"disabled"`
}

// Retry contains replay settings for transiently failed mutations
type Retry struct {
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// Storage contains local database settings
type Storage struct {
	Path string `yaml:"path"`
}

// Links contains share link settings
type Links struct {
	WebBase        string `yaml:"web_base"`
	DeepLinkScheme string `yaml:"deep_link_scheme"`
}

// Logging contains log output settings
type Logging struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
}

// Metrics contains the prometheus endpoint settings
type Metrics struct {
	Listen string `yaml:"listen"` // пусто: метрики не публикуются
}

const (
	DefaultServerURL      = "http://localhost:8080"
	DefaultDBPath         = "forkful-client.db"
	DefaultWebBase        = "https://forkful.app"
	DefaultDeepLinkScheme = "forkful"

	realtimePath = "/realtime"
)

// Default returns a configuration with sensible defaults
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads path, applies defaults and environment overrides and validates
// the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads path when it is set, otherwise returns Default with
// environment overrides applied.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg := Default()
	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.URL == "" {
		cfg.Server.URL = DefaultServerURL
	}
	if cfg.Server.Timeout <= 0 {
		cfg.Server.Timeout = 30 * time.Second
	}
	if cfg.Realtime.HandshakeTimeout <= 0 {
		cfg.Realtime.HandshakeTimeout = 10 * time.Second
	}
	if cfg.Realtime.PingInterval <= 0 {
		cfg.Realtime.PingInterval = 30 * time.Second
	}
	if cfg.Retry.BaseDelay <= 0 {
		cfg.Retry.BaseDelay = time.Second
	}
	if cfg.Retry.MaxDelay <= 0 {
		cfg.Retry.MaxDelay = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultDBPath
	}
	if cfg.Links.WebBase == "" {
		cfg.Links.WebBase = DefaultWebBase
	}
	if cfg.Links.DeepLinkScheme == "" {
		cfg.Links.DeepLinkScheme = DefaultDeepLinkScheme
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// applyEnvOverrides applies FORKFUL_* environment variables
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FORKFUL_SERVER_URL"); v != "" {
		cfg.Server.URL = v
	}
	if v := os.Getenv("FORKFUL_REALTIME_URL"); v != "" {
		cfg.Realtime.URL = v
	}
	if v := os.Getenv("FORKFUL_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("FORKFUL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors
func Validate(cfg *Config) error {
	var errs []error

	if err := checkURL(cfg.Server.URL, "http", "https"); err != nil {
		errs = append(errs, fmt.Errorf("server.url: %w", err))
	}
	if cfg.Realtime.URL != "" {
		if err := checkURL(cfg.Realtime.URL, "ws", "wss"); err != nil {
			errs = append(errs, fmt.Errorf("realtime.url: %w", err))
		}
	}
	if cfg.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("retry.max_attempts must not be negative"))
	}
	if cfg.Retry.MaxDelay < cfg.Retry.BaseDelay {
		errs = append(errs, errors.New("retry.max_delay must not be less than retry.base_delay"))
	}
	if err := checkURL(cfg.Links.WebBase, "http", "https"); err != nil {
		errs = append(errs, fmt.Errorf("links.web_base: %w", err))
	}
	if strings.ContainsAny(cfg.Links.DeepLinkScheme, ":/ ") {
		errs = append(errs, fmt.Errorf("links.deep_link_scheme: invalid scheme %q", cfg.Links.DeepLinkScheme))
	}
	if _, err := ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: must be text or json, got %q", cfg.Logging.Format))
	}

	return errors.Join(errs...)
}

// RealtimeURL returns realtime.url or, when unset, the server URL with a
// websocket scheme and the /realtime path.
func (c *Config) RealtimeURL() string {
	if c.Realtime.URL != "" {
		return c.Realtime.URL
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + realtimePath
	return u.String()
}

// ParseLevel преобразует logging.level в slog.Level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%q must be an absolute %s URL", raw, strings.Join(schemes, "/"))
}
