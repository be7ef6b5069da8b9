package logger

// Logger is the logging port used by application code. Arguments after msg
// are alternating keys and values, as with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
