package config

import (
	"time"

	"github.com/namelens/brandlens/internal/ailink"
)

// Config represents the complete application configuration. Values are
// layered: built-in defaults, then the config file, then a .env file, then
// BRANDLENS_* environment variables, then runtime overrides (CLI flags).
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Store      StoreConfig      `mapstructure:"store"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Domain     DomainConfig     `mapstructure:"domain"`
	AILink     ailink.Config    `mapstructure:"ailink"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Health     HealthConfig     `mapstructure:"health"`
	Debug      DebugConfig      `mapstructure:"debug"`
	Workers    int              `mapstructure:"workers"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// MaxBodyBytes caps request bodies; larger requests are rejected.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`

	// CORSOrigins lists origins allowed to call the API from a browser.
	// "*" allows any origin.
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// CacheConfig contains result cache TTL configuration.
type CacheConfig struct {
	AvailableTTL  time.Duration `mapstructure:"available_ttl"`
	TakenTTL      time.Duration `mapstructure:"taken_ttl"`
	ErrorTTL      time.Duration `mapstructure:"error_ttl"`
	EvaluationTTL time.Duration `mapstructure:"evaluation_ttl"`
}

// DomainConfig controls RDAP verification of exact-match .com domains.
type DomainConfig struct {
	Verify  bool          `mapstructure:"verify"`
	TLD     string        `mapstructure:"tld"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// EvaluationConfig contains brand evaluation settings.
//
// Provider credentials and routing live under `ailink.*`.
type EvaluationConfig struct {
	Role         string        `mapstructure:"role"`
	Prompt       string        `mapstructure:"prompt"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	CacheEnabled bool          `mapstructure:"cache_enabled"`

	// Defaults fill CLI requests that omit a field.
	DefaultCategory    string   `mapstructure:"default_category"`
	DefaultPositioning string   `mapstructure:"default_positioning"`
	DefaultMarketScope string   `mapstructure:"default_market_scope"`
	DefaultCountries   []string `mapstructure:"default_countries"`
}

// LoggingConfig contains logging configuration
// Supports progressive logging profiles:
// - SIMPLE: Console output only, minimal configuration (CLI tools)
// - STRUCTURED: Structured sinks, correlation IDs (API services)
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig contains debug and profiling configuration
type DebugConfig struct {
	// Enabled controls whether debug mode is active
	Enabled bool `mapstructure:"enabled"`

	// PprofEnabled controls whether pprof endpoints are exposed
	// WARNING: Only enable in development/staging environments
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}
