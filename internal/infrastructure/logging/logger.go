package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
)

// Logger wraps slog.Logger with the defaults every relayd log line
// carries. All methods are safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from the logging section of the configuration.
//
// Every entry carries service=relayd and the build version, so one
// journal collecting several devices can still be filtered per daemon.
//
// Parameters:
//   - cfg: Logging configuration (level, format, output)
//   - version: Build version for the default field
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	handler := newHandler(cfg).WithAttrs([]slog.Attr{
		slog.String("service", "relayd"),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

// newHandler builds the slog handler for the configured format, output
// and level. JSON on stdout is the default; text is for watching a bench
// device interactively.
func newHandler(cfg config.LoggingConfig) slog.Handler {
	var output io.Writer = os.Stdout
	if strings.ToLower(cfg.Output) == "stderr" {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	if strings.ToLower(cfg.Format) == "text" {
		return slog.NewTextHandler(output, opts)
	}
	return slog.NewJSONHandler(output, opts)
}

// parseLevel maps the configured level string onto slog.Level.
// Unrecognised or empty values fall back to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child Logger carrying extra default attributes.
//
// Parameters:
//   - args: Alternating key-value pairs attached to every entry
//
// Returns:
//   - *Logger: Child logger; the receiver is unchanged
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component returns a child logger tagged with a component attribute.
// Every subsystem's SetLogger receives one of these at wiring time, so a
// log line can always be traced to the subsystem that emitted it.
//
// Example:
//
//	transport.SetLogger(logger.Component("mqtt"))
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Default creates the logger used between process start and config load:
// JSON on stdout at info level. The version field reads "dev" because the
// real version is not wired in until run() replaces this logger.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
