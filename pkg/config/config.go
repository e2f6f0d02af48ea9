// Package config loads the gateway configuration from flags, environment
// variables and an optional config file through viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/swapi-gateway/pkg/client"
	"github.com/Sternrassler/swapi-gateway/pkg/logging"
	"github.com/Sternrassler/swapi-gateway/pkg/pagination"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. SWAPI_GATEWAY_PORT.
const EnvPrefix = "SWAPI_GATEWAY"

// Keys.
const (
	KeyPort              = "port"
	KeyUpstreamURL       = "upstream_url"
	KeyUserAgent         = "user_agent"
	KeyRequestTimeout    = "request_timeout"
	KeyMaxAttempts       = "max_attempts"
	KeyInitialBackoff    = "initial_backoff"
	KeyBackoffMultiplier = "backoff_multiplier"
	KeyMaxPages          = "max_pages"
	KeyLogLevel          = "log_level"
	KeyLogPretty         = "log_pretty"
	KeyShutdownTimeout   = "shutdown_timeout"
)

// Config is the complete gateway configuration.
type Config struct {
	Port            int
	ShutdownTimeout time.Duration
	Client          client.Config
	Pagination      pagination.Config
	Logging         logging.Config
}

// SetDefaults registers the default value of every key and binds the
// environment.
func SetDefaults(v *viper.Viper) {
	clientDefaults := client.DefaultConfig()

	v.SetDefault(KeyPort, 8080)
	v.SetDefault(KeyUpstreamURL, clientDefaults.BaseURL)
	v.SetDefault(KeyUserAgent, clientDefaults.UserAgent)
	v.SetDefault(KeyRequestTimeout, clientDefaults.Timeout)
	v.SetDefault(KeyMaxAttempts, clientDefaults.Retry.MaxAttempts)
	v.SetDefault(KeyInitialBackoff, clientDefaults.Retry.InitialBackoff)
	v.SetDefault(KeyBackoffMultiplier, clientDefaults.Retry.BackoffMultiplier)
	v.SetDefault(KeyMaxPages, pagination.DefaultConfig().MaxPages)
	v.SetDefault(KeyLogLevel, string(logging.LevelInfo))
	v.SetDefault(KeyLogPretty, false)
	v.SetDefault(KeyShutdownTimeout, 15*time.Second)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:            v.GetInt(KeyPort),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
		Client: client.Config{
			BaseURL:   v.GetString(KeyUpstreamURL),
			UserAgent: v.GetString(KeyUserAgent),
			Timeout:   v.GetDuration(KeyRequestTimeout),
			Retry: client.RetryConfig{
				MaxAttempts:       v.GetInt(KeyMaxAttempts),
				InitialBackoff:    v.GetDuration(KeyInitialBackoff),
				BackoffMultiplier: v.GetFloat64(KeyBackoffMultiplier),
			},
		},
		Pagination: pagination.Config{
			MaxPages: v.GetInt(KeyMaxPages),
		},
		Logging: logging.Config{
			Level:  logging.LogLevel(strings.ToLower(v.GetString(KeyLogLevel))),
			Pretty: v.GetBool(KeyLogPretty),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%s must be in 1..65535 (got %d)", KeyPort, c.Port)
	}
	if c.Client.BaseURL == "" {
		return fmt.Errorf("%s is required", KeyUpstreamURL)
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("%s must be > 0 (got %s)", KeyRequestTimeout, c.Client.Timeout)
	}
	if c.Client.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%s must be >= 1 (got %d)", KeyMaxAttempts, c.Client.Retry.MaxAttempts)
	}
	if c.Client.Retry.InitialBackoff < 0 {
		return fmt.Errorf("%s must be >= 0 (got %s)", KeyInitialBackoff, c.Client.Retry.InitialBackoff)
	}
	if c.Client.Retry.BackoffMultiplier < 1 {
		return fmt.Errorf("%s must be >= 1 (got %g)", KeyBackoffMultiplier, c.Client.Retry.BackoffMultiplier)
	}
	if c.Pagination.MaxPages < 1 {
		return fmt.Errorf("%s must be >= 1 (got %d)", KeyMaxPages, c.Pagination.MaxPages)
	}
	if !c.Logging.Level.Valid() {
		return fmt.Errorf("%s must be one of debug, info, warn, error (got %q)", KeyLogLevel, c.Logging.Level)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%s must be > 0 (got %s)", KeyShutdownTimeout, c.ShutdownTimeout)
	}
	return nil
}
