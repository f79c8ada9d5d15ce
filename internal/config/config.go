// Package config loads the kanban server configuration.
//
// Configuration starts from Default, is merged with a YAML file named by the
// --config flag or the KANBAN_CONFIG environment variable, and finally takes
// a small set of environment overrides for values that differ per deployment
// (secrets, paths, listen address).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables.
const (
	EnvConfigPath    = "KANBAN_CONFIG"
	EnvSessionSecret = "KANBAN_SESSION_SECRET"
	EnvDBPath        = "KANBAN_DB_PATH"
	EnvAddr          = "KANBAN_ADDR"
	EnvLogLevel      = "KANBAN_LOG_LEVEL"
	EnvMetrics       = "KANBAN_METRICS_ENABLED"
)

// DevSessionSecret is the development default. Production refuses it.
const DevSessionSecret = "kanban-dev-secret-do-not-use-in-production"

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Config is the server configuration.
type Config struct {
	Environment Environment    `yaml:"environment"`
	Server      ServerConfig   `yaml:"server"`
	Database    DatabaseConfig `yaml:"database"`
	Auth        AuthConfig     `yaml:"auth"`
	Audit       AuditConfig    `yaml:"audit"`
	Log         LogConfig      `yaml:"log"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	// Path is the database file, or ":memory:".
	Path          string `yaml:"path"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	SessionSecret string        `yaml:"session_secret"`
	SessionCookie string        `yaml:"session_cookie"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

// AuditConfig tunes the activity ledger.
type AuditConfig struct {
	// LogCascadedDeletes writes a ticket_deleted entry for every descendant
	// removed by a subtree delete, not only for the root.
	LogCascadedDeletes bool `yaml:"log_cascaded_deletes"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
	File   string `yaml:"file"`
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Path:          "data/kanban.db",
			BusyTimeoutMS: 5000,
		},
		Auth: AuthConfig{
			SessionSecret: DevSessionSecret,
			SessionCookie: "kanban_session",
			SessionTTL:    24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load resolves the config path (explicit path first, then KANBAN_CONFIG),
// loads it over the defaults and applies environment overrides. With no
// path at all the defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges a YAML file into c. Unknown keys are rejected.
func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvSessionSecret); ok && v != "" {
		c.Auth.SessionSecret = v
	}
	if v, ok := lookup(EnvDBPath); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvMetrics); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMetrics, err)
		}
		c.Metrics.Enabled = enabled
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Database.BusyTimeoutMS < 0 {
		errs = append(errs, errors.New("database.busy_timeout_ms must not be negative"))
	}
	if c.Auth.SessionSecret == "" {
		errs = append(errs, errors.New("auth.session_secret is required"))
	}
	if c.Environment == Production && c.Auth.SessionSecret == DevSessionSecret {
		errs = append(errs, fmt.Errorf("auth.session_secret must be set in production (use %s)", EnvSessionSecret))
	}
	if c.Auth.SessionCookie == "" {
		errs = append(errs, errors.New("auth.session_cookie is required"))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format must be one of: json, console"))
	}

	return errors.Join(errs...)
}
