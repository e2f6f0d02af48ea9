// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Valid reports whether l is a known level. "warning" is accepted for warn.
func (l LogLevel) Valid() bool {
	switch strings.ToLower(string(l)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger. It is called once at process
// start, before any component logger is derived.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.DurationFieldUnit = time.Millisecond

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: per-attempt detail
//   - Upstream attempts (url, attempt, max_attempts)
//   - Walk summaries (pages, records, reported_total)
//
// Info: normal operation
//   - HTTP access log (method, path, route, status, duration, request_id)
//   - Explore and related lookups completed
//   - Retry succeeded, server startup/shutdown
//
// Warn: degraded but served
//   - Retry attempts with backoff
//   - Pagination stopped early (partial results)
//   - Related records skipped
//   - Sort field not allowed for the resource type
//
// Error: request failed
//   - Retry attempts exhausted
//   - Upstream failures surfaced as 502
//
// Context Fields:
//   - component: swapi-client, pagination, explorer, gateway, server
//   - request_id: X-Request-Id of the inbound request
//   - resource: people, planets, starships or films
//   - url: upstream URL
//   - error_class: timeout, connection, client, server, other
//   - duration: elapsed milliseconds
