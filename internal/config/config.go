// Package config provides configuration management for the scholar rank service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "SCHOLARRANK"

const (
	// EnvScopusAPIKey holds the Scopus API key.
	EnvScopusAPIKey = EnvPrefix + "_SCOPUS_API_KEY"
	// EnvLegacyAPIKey is read when EnvScopusAPIKey is unset.
	EnvLegacyAPIKey = "API_KEY"
)

// Config holds all configuration for the scholar rank service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Scopus contains the upstream search API settings.
	Scopus ScopusConfig `mapstructure:"scopus"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8000).
	HTTPPort int `mapstructure:"http_port" validate:"min=1,max=65535"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port" validate:"min=1,max=65535"`
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response. It must
	// cover the upstream search plus every author lookup.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level" validate:"loglevel"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format" validate:"oneof=json console"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path" validate:"omitempty,startswith=/"`
}

// ScopusConfig holds configuration for the Scopus search API.
type ScopusConfig struct {
	// APIKey is loaded from SCHOLARRANK_SCOPUS_API_KEY, or API_KEY when unset.
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// Timeout is the timeout of every upstream call.
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// ResultCount is the fixed number of papers requested per search.
	ResultCount int `mapstructure:"result_count" validate:"min=1,max=200"`
	// Sort is the upstream sort field.
	Sort string `mapstructure:"sort" validate:"required"`
	// RateLimit is the maximum upstream requests per second. Zero disables local limiting.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	// BurstSize is the token bucket size used when RateLimit is set.
	BurstSize int `mapstructure:"burst_size" validate:"min=1"`
	// EnrichmentWorkers bounds concurrent author lookups per request.
	EnrichmentWorkers int `mapstructure:"enrichment_workers" validate:"min=1,max=25"`
	// UserAgent is sent with every upstream request.
	UserAgent string `mapstructure:"user_agent"`
}

// HasAPIKey reports whether an API key was configured.
func (c *ScopusConfig) HasAPIKey() bool {
	return c.APIKey != ""
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from a .env file, environment variables and config files.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/scholar-rank-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets use mapstructure:"-" and never come from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv exports the variables of path into the process environment.
// Variables already set win. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.Scopus.APIKey = os.Getenv(EnvScopusAPIKey)
	if cfg.Scopus.APIKey == "" {
		cfg.Scopus.APIKey = os.Getenv(EnvLegacyAPIKey)
	}
}

// defaults are applied before the config file and the environment.
var defaults = map[string]any{
	"server.host":             "0.0.0.0",
	"server.http_port":        8000,
	"server.metrics_port":     9091,
	"server.read_timeout":     "15s",
	"server.write_timeout":    "5m",
	"server.shutdown_timeout": "30s",

	"logging.level":       "info",
	"logging.format":      "json",
	"logging.output":      "stdout",
	"logging.add_source":  false,
	"logging.time_format": time.RFC3339,

	"metrics.enabled": true,
	"metrics.path":    "/metrics",

	"scopus.base_url":           "https://api.elsevier.com/content",
	"scopus.timeout":            "30s",
	"scopus.result_count":       20,
	"scopus.sort":               "citedby-count",
	"scopus.rate_limit":         0.0,
	"scopus.burst_size":         1,
	"scopus.enrichment_workers": 1,
	"scopus.user_agent":         "Helixir-ScholarRank/1.0",
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Validate checks field constraints, then the rules that span sections.
// A missing API key is not an error: the service starts, reports not ready
// and upstream calls fail.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s (%v): failed %q constraint", fe.Namespace(), fe.Value(), fe.Tag())
		}
		return err
	}

	if c.Metrics.Enabled {
		if c.Server.MetricsPort == c.Server.HTTPPort {
			return fmt.Errorf("metrics port %d collides with HTTP port", c.Server.MetricsPort)
		}
		if c.Metrics.Path == "" {
			return errors.New("metrics path is required when metrics are enabled")
		}
	}
	return nil
}

var validate = newValidator()

// newValidator registers "loglevel", which accepts any name zerolog can parse.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		name := strings.ToLower(fl.Field().String())
		if name == "warning" {
			return true
		}
		lvl, err := zerolog.ParseLevel(name)
		return err == nil && name != "" && lvl != zerolog.NoLevel && lvl != zerolog.Disabled
	})
	return v
}
