// Package log provides the structured logger shared by the ugraph packages.
package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Level represents log severity levels
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name (case-insensitive) to a Level. Unknown names
// map to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (l Level) charm() charmlog.Level {
	switch l {
	case DebugLevel:
		return charmlog.DebugLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// Logger interface defines structured logging methods. Args are alternating
// key/value pairs.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	SetLevel(level Level)
	SetJSONOutput(enabled bool)
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level      Level
	JSONOutput bool
	// Output receives every record. Defaults to os.Stderr.
	Output io.Writer
	// Prefix is printed before each message, e.g. the command name.
	Prefix string
}

// DefaultLogger is the default implementation of Logger, backed by charmbracelet/log.
type DefaultLogger struct {
	l *charmlog.Logger
}

var (
	defaultLogger *DefaultLogger
	once          sync.Once
)

// New creates a new logger with the given configuration
func New(cfg LoggerConfig) *DefaultLogger {
	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	l := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           cfg.Level.charm(),
		Prefix:          cfg.Prefix,
	})
	if cfg.JSONOutput {
		l.SetFormatter(charmlog.JSONFormatter)
	}
	return &DefaultLogger{l: l}
}

// Default returns the default logger instance
func Default() *DefaultLogger {
	once.Do(func() {
		defaultLogger = New(LoggerConfig{Level: InfoLevel})
	})
	return defaultLogger
}

// Debug logs a debug message
func (d *DefaultLogger) Debug(msg string, args ...interface{}) { d.l.Debug(msg, args...) }

// Info logs an info message
func (d *DefaultLogger) Info(msg string, args ...interface{}) { d.l.Info(msg, args...) }

// Warn logs a warning message
func (d *DefaultLogger) Warn(msg string, args ...interface{}) { d.l.Warn(msg, args...) }

// Error logs an error message
func (d *DefaultLogger) Error(msg string, args ...interface{}) { d.l.Error(msg, args...) }

// SetLevel sets the minimum log level
func (d *DefaultLogger) SetLevel(level Level) { d.l.SetLevel(level.charm()) }

// SetJSONOutput switches between JSON and text records.
func (d *DefaultLogger) SetJSONOutput(enabled bool) {
	if enabled {
		d.l.SetFormatter(charmlog.JSONFormatter)
		return
	}
	d.l.SetFormatter(charmlog.TextFormatter)
}

// Nop returns a logger that discards everything.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) SetLevel(Level)               {}
func (nopLogger) SetJSONOutput(bool)           {}

// Progress logs the elapsed time of an operation when Done is called.
type Progress struct {
	logger Logger
	start  time.Time
}

// NewProgress starts timing an operation.
func NewProgress(l Logger) *Progress {
	return &Progress{logger: l, start: time.Now()}
}

// Done logs msg at debug level with the elapsed duration rounded to milliseconds.
func (p *Progress) Done(msg string, args ...interface{}) {
	args = append(args, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Debug(msg, args...)
}
