// Package logging owns the global zerolog configuration for modsort.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// logWriter stores the current log writer globally
	logWriter io.Writer
)

// init sets the default logger's level to WarnLevel. Library consumers
// that want more detail call ConfigureGlobal. init leaves zerolog's
// global level untouched, so loggers built by NewLogger and
// NewLoggerWithWriter keep the level they are given until ConfigureGlobal
// sets one.
func init() {
	log.Logger = log.Logger.Level(zerolog.WarnLevel)
	logWriter = zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

// ConfigureGlobal configures the global logger with the given level.
func ConfigureGlobal(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)

	logContext := zerolog.New(getLogWriter()).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger
}

// ConfigureGlobalLogging configures the global logging settings from a
// level string ("trace", "debug", "info", "warn", "error").
func ConfigureGlobalLogging(levelStr string) error {
	ConfigureGlobal(ParseLogLevel(levelStr))
	return nil
}

// ParseLogLevel converts a string log level to zerolog.Level.
func ParseLogLevel(levelString string) zerolog.Level {
	if levelString == "" {
		levelString = "warn"
	}

	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil {
		log.Error().Err(err).
			Str("logLevel", levelString).
			Msg("Invalid log level provided. Defaulting to warn level.")
		return zerolog.WarnLevel
	}
	return level
}

// NewLogger returns a component-scoped logger at the given level writing
// to the globally configured writer.
func NewLogger(component string, level zerolog.Level) zerolog.Logger {
	return NewLoggerWithWriter(component, level, getLogWriter())
}

// NewLoggerWithWriter returns a component-scoped logger writing to w.
func NewLoggerWithWriter(component string, level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(level).With().
		Timestamp().
		Str("component", component).
		Logger()
}

// getLogWriter returns the configured log writer
func getLogWriter() io.Writer {
	return logWriter
}

// SetLogWriter sets the global log writer
func SetLogWriter(w io.Writer) {
	logWriter = w
}
