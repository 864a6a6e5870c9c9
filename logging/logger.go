// Package logging builds the zerolog loggers used by the simulator.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Environment variables read by NewFromEnv.
const (
	EnvLevel  = "CACHESIM_LOG_LEVEL"
	EnvFormat = "CACHESIM_LOG_FORMAT"
)

// Config holds logging configuration
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string
}

// DefaultConfig logs warnings and above to the console. Command output goes
// to stdout, so the log stays quiet unless asked.
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.WarnLevel,
		Format:     "console",
		TimeFormat: time.RFC3339,
	}
}

// New creates a logger writing to out. A nil out means stderr.
func New(cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	output := out
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: cfg.TimeFormat,
			NoColor:    out != os.Stderr,
		}
	}

	return zerolog.New(output).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to a zerolog level. Unknown names return
// false.
func ParseLevel(name string) (zerolog.Level, bool) {
	switch strings.ToLower(name) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "off", "disabled":
		return zerolog.Disabled, true
	}
	return zerolog.NoLevel, false
}

// ConfigFromEnv applies CACHESIM_LOG_LEVEL (trace, debug, info, warn, error,
// off) and CACHESIM_LOG_FORMAT (json, console) on top of cfg.
func ConfigFromEnv(cfg Config) Config {
	if level, ok := ParseLevel(os.Getenv(EnvLevel)); ok {
		cfg.Level = level
	}

	switch format := os.Getenv(EnvFormat); format {
	case "json", "console":
		cfg.Format = format
	}

	return cfg
}

// NewFromEnv creates a stderr logger from DefaultConfig and the environment.
func NewFromEnv() zerolog.Logger {
	return New(ConfigFromEnv(DefaultConfig()), nil)
}
