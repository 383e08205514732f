// Package telemetry is the ambient logger shared across components. It
// wraps the standard log package with a component tag and a level
// cutoff, driven by the LOG_LEVEL environment variable.
package telemetry

import (
	"log"
	"os"
	"strings"
)

// Level is the logging verbosity cutoff.
type Level int

const (
	LevelError Level = iota
	LevelInfo
	LevelDebug
)

// ParseLevel reads a level name ("debug", "info", "error"), defaulting
// to Info for anything else.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger tags every line it emits with a component name, e.g.
// "[INFO] [revisionlog] submit rejected: stale revision".
type Logger struct {
	component string
	level     Level
}

// New creates a Logger for component at level.
func New(component string, level Level) *Logger {
	return &Logger{component: component, level: level}
}

// FromEnv creates a Logger for component using the LOG_LEVEL environment
// variable.
func FromEnv(component string) *Logger {
	return New(component, ParseLevel(os.Getenv("LOG_LEVEL")))
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, v ...interface{}) {
	if l.level >= LevelDebug {
		log.Printf("[DEBUG] [%s] "+format, append([]interface{}{l.component}, v...)...)
	}
}

// Info logs at info level.
func (l *Logger) Info(format string, v ...interface{}) {
	if l.level >= LevelInfo {
		log.Printf("[INFO] [%s] "+format, append([]interface{}{l.component}, v...)...)
	}
}

// Error always logs, regardless of level.
func (l *Logger) Error(format string, v ...interface{}) {
	log.Printf("[ERROR] [%s] "+format, append([]interface{}{l.component}, v...)...)
}
