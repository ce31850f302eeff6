package logging

import (
	"bytes"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// AppLogger is the structured logger shared by every archdocs component.
// Output never goes to stdout because stdout carries the MCP stdio transport.
type AppLogger struct {
	logger *log.Logger
	debug  bool
}

var (
	defaultLogger *AppLogger
	once          sync.Once
)

// GetDefault returns the default logger instance (singleton-like for convenience)
func GetDefault() *AppLogger {
	once.Do(func() {
		defaultLogger = NewAppLogger()
	})
	return defaultLogger
}

// Package-level convenience functions for quick logging
func Info(msg string, keyvals ...interface{}) {
	GetDefault().Info(msg, keyvals...)
}

func Warn(msg string, keyvals ...interface{}) {
	GetDefault().Warn(msg, keyvals...)
}

func Error(msg string, keyvals ...interface{}) {
	GetDefault().Error(msg, keyvals...)
}

func Debug(msg string, keyvals ...interface{}) {
	GetDefault().Debug(msg, keyvals...)
}

func LogPerformance(operation string, start time.Time) {
	GetDefault().LogPerformance(operation, start)
}

// NewAppLogger builds the process logger.
//
// With DEBUG set, logs are written to archdocs.log in the working directory
// (truncated on each run) at debug level. Otherwise logs go to stderr at warn
// level. ARCHDOCS_LOG_LEVEL overrides the level in both modes.
func NewAppLogger() *AppLogger {
	debug := os.Getenv("DEBUG") != ""

	var logger *log.Logger

	if debug {
		logPath := filepath.Join(".", "archdocs.log")
		if cwd, err := os.Getwd(); err == nil {
			logPath = filepath.Join(cwd, "archdocs.log")
		}

		var out io.Writer = os.Stderr
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err == nil {
			out = logFile
		}

		logger = log.NewWithOptions(out, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
			Prefix:          "Archdocs",
		})
		logger.SetLevel(log.DebugLevel)

		if err != nil {
			logger.Warn("Debug log file unavailable, logging to stderr", "log_file", logPath, "error", err)
		} else {
			logger.Info("Debug logging enabled", "log_file", logPath)
		}
	} else {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "Archdocs",
		})
		logger.SetLevel(log.WarnLevel)
	}

	if lvl, ok := levelFromEnv(); ok {
		logger.SetLevel(lvl)
		debug = debug || lvl == log.DebugLevel
	}

	return &AppLogger{
		logger: logger,
		debug:  debug,
	}
}

// levelFromEnv parses ARCHDOCS_LOG_LEVEL.
func levelFromEnv() (log.Level, bool) {
	raw := strings.TrimSpace(os.Getenv("ARCHDOCS_LOG_LEVEL"))
	if raw == "" {
		return log.InfoLevel, false
	}
	lvl, err := log.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return log.InfoLevel, false
	}
	return lvl, true
}

// With returns a child logger that prefixes every entry with keyvals.
func (al *AppLogger) With(keyvals ...interface{}) *AppLogger {
	return &AppLogger{
		logger: al.logger.With(keyvals...),
		debug:  al.debug,
	}
}

// SetLevel changes the minimum level that is emitted.
func (al *AppLogger) SetLevel(level string) error {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	al.logger.SetLevel(lvl)
	al.debug = lvl == log.DebugLevel
	return nil
}

// Log application events
func (al *AppLogger) Info(msg string, keyvals ...interface{}) {
	al.logger.Info(msg, keyvals...)
}

func (al *AppLogger) Warn(msg string, keyvals ...interface{}) {
	al.logger.Warn(msg, keyvals...)
}

func (al *AppLogger) Error(msg string, keyvals ...interface{}) {
	al.logger.Error(msg, keyvals...)
}

func (al *AppLogger) Debug(msg string, keyvals ...interface{}) {
	if al.debug {
		al.logger.Debug(msg, keyvals...)
	}
}

// Log performance metrics
func (al *AppLogger) LogPerformance(operation string, start time.Time) {
	if al.debug {
		al.logger.Debug("Performance",
			"operation", operation,
			"duration", time.Since(start),
		)
	}
}

// LogStateTransition records index lifecycle changes (uninitialized, ready, refreshing).
func (al *AppLogger) LogStateTransition(component, from, to string) {
	if al.debug {
		al.logger.Debug("State transition",
			"component", component,
			"from", from,
			"to", to,
		)
	}
}

// StandardLog adapts the logger for libraries that want a *log.Logger from
// the standard library. Entries are emitted at error level.
func (al *AppLogger) StandardLog() *stdlog.Logger {
	return al.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel})
}

// NewTestLogger creates a logger that writes to a buffer for testing
func NewTestLogger() (*AppLogger, *bytes.Buffer) {
	var buf bytes.Buffer

	logger := log.NewWithOptions(&buf, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
		Prefix:          "Test",
	})
	logger.SetLevel(log.DebugLevel)

	return &AppLogger{
		logger: logger,
		debug:  true,
	}, &buf
}

// NewNopLogger discards everything; handy for CLI commands that print their own output.
func NewNopLogger() *AppLogger {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return &AppLogger{logger: logger}
}
