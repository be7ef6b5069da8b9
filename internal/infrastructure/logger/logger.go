package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger struct {
	*slog.Logger
}

// Options selects the handler for a logger. Empty fields fall back to
// INFO, text and stdout.
type Options struct {
	Level  string
	Format string
	Output string
}

// DefaultLogger creates a logger using slog.Default()
func DefaultLogger() *Logger {
	return &Logger{
		Logger: slog.Default(),
	}
}

// NewLogger creates a configured logger based on environment variables:
// - FLEETSYNC_LOG_LEVEL: DEBUG, INFO, WARN, ERROR (default: INFO)
// - FLEETSYNC_LOG_FORMAT: json or text (default: text)
// - FLEETSYNC_LOG_OUTPUT: stdout, stderr, or file path (default: stdout)
func NewLogger() *Logger {
	return New(Options{
		Level:  os.Getenv("FLEETSYNC_LOG_LEVEL"),
		Format: os.Getenv("FLEETSYNC_LOG_FORMAT"),
		Output: os.Getenv("FLEETSYNC_LOG_OUTPUT"),
	})
}

// New creates a logger from explicit options.
func New(opts Options) *Logger {
	level := parseLogLevel(opts.Level)
	format := strings.ToLower(opts.Format)
	output := opts.Output

	if format == "" {
		format = "text"
	}

	if output == "" {
		output = "stdout"
	}

	var writer io.Writer
	switch output {
	case "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			// Fallback to stdout if file can't be opened
			writer = os.Stdout
		} else {
			writer = file
		}
	}

	var handler slog.Handler
	handlerOpts := &slog.HandlerOptions{
		Level: level,
	}

	if format == "json" {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(writer, handlerOpts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SLog exposes the underlying slog.Logger for libraries that need one.
func (l *Logger) SLog() *slog.Logger {
	return l.Logger
}

// parseLogLevel parses log level from string
func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefaultLogger sets the logger as the default slog logger
func SetDefaultLogger(l *Logger) {
	slog.SetDefault(l.Logger)
}
