// Package logger provides a simple logging interface for fleetwatch components.
// It allows packages to log debug, info, warn, and error messages without
// being coupled to a specific logging implementation. The default backend
// is zerolog, writing human-readable lines to stderr or JSON lines to a file.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DebugEnvVar enables debug output when set to any non-empty value.
const DebugEnvVar = "FLEETWATCH_DEBUG"

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Options configures the shared zerolog backend.
type Options struct {
	// Level is a zerolog level name ("debug", "info", "warn", "error").
	// Empty means info. FLEETWATCH_DEBUG forces debug over any Level; a bad
	// Level is still rejected.
	Level string
	// File, when set, receives JSON lines instead of stderr. The TUI sets
	// this because it owns the terminal.
	File string
	// Writer overrides both File and stderr. Used by tests.
	Writer io.Writer
}

var (
	backendMu sync.RWMutex
	backend   = newConsoleBackend(os.Stderr, defaultLevel())
)

func defaultLevel() zerolog.Level {
	if os.Getenv(DebugEnvVar) != "" {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func newConsoleBackend(w io.Writer, level zerolog.Level) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: true}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}

// Configure replaces the shared backend used by every env logger.
// The returned closer releases the log file, if one was opened; it is
// always non-nil.
func Configure(opts Options) (io.Closer, error) {
	level := defaultLevel()
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nopCloser{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		if level != zerolog.DebugLevel {
			level = parsed
		}
	}

	var (
		next   zerolog.Logger
		closer io.Closer = nopCloser{}
	)
	switch {
	case opts.Writer != nil:
		next = zerolog.New(opts.Writer).Level(level).With().Timestamp().Logger()
	case opts.File != "":
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		next = zerolog.New(f).Level(level).With().Timestamp().Logger()
		closer = f
	default:
		next = newConsoleBackend(os.Stderr, level)
	}

	backendMu.Lock()
	backend = next
	backendMu.Unlock()
	return closer, nil
}

// Discard silences the shared backend. The TUI uses this when no log file
// is configured so stray lines never tear the screen.
func Discard() {
	backendMu.Lock()
	backend = zerolog.Nop()
	backendMu.Unlock()
}

func currentBackend() zerolog.Logger {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return backend
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// envLogger implements Logger on top of the shared zerolog backend.
// Debug messages are only emitted when the backend level allows them.
type envLogger struct {
	prefix string
}

// NewEnvLogger creates a logger that writes through the shared backend.
// The prefix is attached to every line as the component field (e.g. "poll").
func NewEnvLogger(prefix string) Logger {
	return &envLogger{prefix: strings.Trim(prefix, "[] ")}
}

func (l *envLogger) event(e *zerolog.Event) *zerolog.Event {
	if l.prefix != "" {
		e = e.Str("component", l.prefix)
	}
	return e
}

func (l *envLogger) Debug(format string, args ...interface{}) {
	zl := currentBackend()
	l.event(zl.Debug()).Msgf(format, args...)
}

func (l *envLogger) Info(format string, args ...interface{}) {
	zl := currentBackend()
	l.event(zl.Info()).Msgf(format, args...)
}

func (l *envLogger) Warn(format string, args ...interface{}) {
	zl := currentBackend()
	l.event(zl.Warn()).Msgf(format, args...)
}

func (l *envLogger) Error(format string, args ...interface{}) {
	zl := currentBackend()
	l.event(zl.Error()).Msgf(format, args...)
}

// noopLogger implements Logger but discards all messages.
// Useful for testing or when logging is not desired.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for testing.
// It is safe for concurrent use; read Messages only after the writers are done,
// or use Entries for a consistent copy.
type BufferLogger struct {
	mu       sync.Mutex
	Messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		Messages: make([]LogMessage, 0),
	}
}

func (l *BufferLogger) add(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.add("debug", format, args...) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.add("info", format, args...) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.add("warn", format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.add("error", format, args...) }

// Entries returns a copy of the captured messages.
func (l *BufferLogger) Entries() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.Messages))
	copy(out, l.Messages)
	return out
}

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	for _, m := range l.Entries() {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = l.Messages[:0]
}

// defaultLogger is the package-level default logger.
var defaultLogger = NewEnvLogger("")

// Default returns the default logger for the package.
func Default() Logger {
	return defaultLogger
}

// SetDefault sets the default logger for the package.
func SetDefault(l Logger) {
	defaultLogger = l
}
