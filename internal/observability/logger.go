package observability

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log entry as the "service" field.
const ServiceName = "scholar-rank-service"

// LoggingConfig contains logger configuration options.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error, fatal, panic).
	Level string

	// Format is json or console.
	Format string

	// Output is stdout, stderr or a file path opened for appending.
	Output string

	// AddSource adds caller file:line.
	AddSource bool

	// TimeFormat is the timestamp layout, RFC3339 when empty.
	TimeFormat string
}

// NewLogger builds the process logger. The level is also installed as the
// zerolog global level.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = cmp.Or(cfg.TimeFormat, time.RFC3339)

	out := openOutput(cfg.Output)
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: zerolog.TimeFieldFormat}
	}

	ctx := zerolog.New(out).With().Timestamp().Str("service", ServiceName)
	if cfg.AddSource {
		ctx = ctx.Caller()
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	return ctx.Logger().Level(level)
}

// openOutput resolves the output destination. A file that cannot be opened
// falls back to stderr so startup never fails on logging.
func openOutput(dest string) io.Writer {
	switch strings.ToLower(dest) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log output %q unavailable, using stderr: %v\n", dest, err)
		return os.Stderr
	}
	return f
}

// parseLevel maps a level name to zerolog, accepting "warning" for warn.
// Unknown or empty names give info.
func parseLevel(level string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || name == "" || lvl == zerolog.NoLevel || lvl == zerolog.Disabled {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithSearchContext adds search-related fields to a logger.
func WithSearchContext(logger zerolog.Logger, query, source string) zerolog.Logger {
	return logger.With().
		Str("query", query).
		Str("source", source).
		Logger()
}

// WithPaperContext adds paper-related fields to a logger.
func WithPaperContext(logger zerolog.Logger, title, authorsLink string) zerolog.Logger {
	return logger.With().
		Str("paper_title", title).
		Str("authors_link", authorsLink).
		Logger()
}
