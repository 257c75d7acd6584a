// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// DataPath overrides the Claude data directory. Empty means the
	// default resolution order applies (see DataDir).
	DataPath string

	// DatabasePath is the sqlite telemetry store location.
	DatabasePath string

	// LogPath is where application logs are written. The TUI owns the
	// terminal, so logs never go to stderr while running.
	LogPath string

	// SettingsPath is the TOML user settings file location.
	SettingsPath string

	// RefreshInterval is the collector's push heartbeat cadence.
	RefreshInterval time.Duration

	// RefreshStrategy selects push or poll synchronization.
	RefreshStrategy string

	// TelemetryEnabled switches the data source to the telemetry store.
	TelemetryEnabled bool

	// CollectorPort is the local OTLP/HTTP listener port Claude Code
	// exports telemetry to. Only used when telemetry is enabled.
	CollectorPort int
}

// Default values
const (
	defaultRefreshInterval = 5 * time.Second
	defaultStrategy        = "push"
	defaultCollectorPort   = 4318
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	for _, path := range envPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		DataPath:         getEnvString("CCMON_DATA_PATH", ""),
		DatabasePath:     getEnvString("CCMON_DB_PATH", defaultDatabasePath()),
		LogPath:          getEnvString("CCMON_LOG_PATH", defaultLogPath()),
		SettingsPath:     getEnvString("CCMON_SETTINGS_PATH", defaultSettingsPath()),
		RefreshInterval:  getEnvDuration("CCMON_REFRESH_INTERVAL", defaultRefreshInterval),
		RefreshStrategy:  getEnvString("CCMON_REFRESH_STRATEGY", defaultStrategy),
		TelemetryEnabled: telemetryEnabled(),
		CollectorPort:    getEnvInt("CCMON_COLLECTOR_PORT", defaultCollectorPort),
	}

	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.LogPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DataDir resolves the Claude data directory. Priority: explicit override,
// CLAUDE_CONFIG_DIR, then ~/.claude.
func (c *Config) DataDir() string {
	return ResolveDataDir(c.DataPath)
}

// ProjectsDir returns the session log directory under the data dir.
func (c *Config) ProjectsDir() string {
	return filepath.Join(c.DataDir(), "projects")
}

// ResolveDataDir applies the data directory resolution order for an
// optional override path.
func ResolveDataDir(override string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv("CLAUDE_CONFIG_DIR"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claude"
	}
	return filepath.Join(home, ".claude")
}

// telemetryEnabled mirrors Claude Code's own telemetry switch.
func telemetryEnabled() bool {
	v := os.Getenv("CLAUDE_CODE_ENABLE_TELEMETRY")
	return v == "1" || v == "true" || v == "TRUE" || v == "True"
}

// envPaths returns a list of paths to check for .env files.
func envPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "ccmon", ".env"),
		)
	}

	return paths
}

func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "ccmon")
}

// defaultDatabasePath returns the default path for the telemetry database.
func defaultDatabasePath() string {
	return filepath.Join(stateDir(), "telemetry.db")
}

func defaultLogPath() string {
	return filepath.Join(stateDir(), "ccmon.log")
}

func defaultSettingsPath() string {
	return filepath.Join(stateDir(), "settings.toml")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the
// default. Accepts values like "30s", "1m", "500ms", or plain seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
