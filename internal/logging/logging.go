package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	out    io.Writer = os.Stderr
	level            = parseLevel(os.Getenv("DEBUG"), os.Getenv("LOG_LEVEL"))
	logger           = build(out, level)
)

// parseLevel maps DEBUG and LOG_LEVEL onto a zerolog level. A truthy DEBUG
// wins; anything unrecognised is info.
func parseLevel(debug, name string) zerolog.Level {
	switch strings.ToLower(debug) {
	case "1", "true", "yes", "on":
		return zerolog.DebugLevel
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func build(w io.Writer, lvl zerolog.Level) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime, NoColor: w != os.Stderr}
	return zerolog.New(console).Level(lvl).With().Timestamp().Logger()
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	logger = build(out, level)
}

// SetLevel overrides the level taken from the environment.
func SetLevel(lvl zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	logger = build(out, level)
}

// GetLevel returns the active level.
func GetLevel() zerolog.Level {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// IsDebugEnabled reports whether Debug messages are written.
func IsDebugEnabled() bool {
	return GetLevel() <= zerolog.DebugLevel
}

func Debug(format string, args ...any) {
	current().Debug().Msgf(format, args...)
}

func Info(format string, args ...any) {
	current().Info().Msgf(format, args...)
}

func Warn(format string, args ...any) {
	current().Warn().Msgf(format, args...)
}

func Error(format string, args ...any) {
	current().Error().Msgf(format, args...)
}

// Fatal logs and exits with status 1.
func Fatal(format string, args ...any) {
	current().Fatal().Msgf(format, args...)
}

// Printf logs without a level, so it is never filtered.
func Printf(format string, args ...any) {
	current().Log().Msgf(format, args...)
}

// Println is Printf with fmt.Sprintln formatting.
func Println(args ...any) {
	current().Log().Msg(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}
