// Package config loads server configuration, layering a YAML file
// underneath environment variable overrides, so deployments can check a
// config file into source control instead of wiring every field through
// the process environment.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the revision-log server's runtime configuration.
type Config struct {
	// Addr is the listen address for the HTTP/WebSocket server, e.g. ":8080".
	Addr string `yaml:"addr"`

	// SQLitePath, if set, durably persists the revision log to a SQLite
	// file via pkg/revisionlog's sqlite store. Empty means in-memory only.
	SQLitePath string `yaml:"sqlite_path"`

	// MaxRevisionsPerResponse bounds how many revisions a single
	// GetDocumentRevisions / STALE response returns before the caller
	// must continue with another request.
	MaxRevisionsPerResponse int `yaml:"max_revisions_per_response"`

	// EditableWindow is the client editor engine's current-change
	// editable_until duration.
	EditableWindow time.Duration `yaml:"editable_window"`

	// UndoStackLimit caps the client undo/redo stacks.
	UndoStackLimit int `yaml:"undo_stack_limit"`

	// LogLevel selects the ambient logger's verbosity ("debug", "info", "error").
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Addr:                    ":8080",
		SQLitePath:              "",
		MaxRevisionsPerResponse: 256,
		EditableWindow:          2000 * time.Millisecond,
		UndoStackLimit:          10000,
		LogLevel:                "info",
	}
}

// Load builds a Config by starting from Default, applying a YAML file at
// path if it exists (a missing file is not an error — it just means
// "use the defaults"), and finally layering environment variable
// overrides on top.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, err
			}
		} else if !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	cfg.Addr = getEnv("TEXERE_ADDR", cfg.Addr)
	cfg.SQLitePath = getEnv("TEXERE_SQLITE_PATH", cfg.SQLitePath)
	cfg.MaxRevisionsPerResponse = getEnvInt("TEXERE_MAX_REVISIONS_PER_RESPONSE", cfg.MaxRevisionsPerResponse)
	cfg.UndoStackLimit = getEnvInt("TEXERE_UNDO_STACK_LIMIT", cfg.UndoStackLimit)
	cfg.LogLevel = getEnv("TEXERE_LOG_LEVEL", cfg.LogLevel)
	if ms := getEnvInt("TEXERE_EDITABLE_WINDOW_MS", 0); ms > 0 {
		cfg.EditableWindow = time.Duration(ms) * time.Millisecond
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
