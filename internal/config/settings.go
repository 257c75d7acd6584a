package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Settings holds persisted user preferences, stored as TOML.
type Settings struct {
	// PlanType selects the subscription plan used for limit display and
	// cost notifications: pro, max5, or max20.
	PlanType string `toml:"plan_type"`

	// ViewMode is the display density restored on startup.
	ViewMode string `toml:"view_mode"`

	// AlwaysOnTop asks the window manager to keep the window on top.
	AlwaysOnTop bool `toml:"always_on_top"`
}

const defaultPlanType = "pro"

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		PlanType: defaultPlanType,
		ViewMode: "normal",
	}
}

// LoadSettings reads settings from path, falling back to defaults when the
// file is missing or unreadable. A broken settings file must never prevent
// startup.
func LoadSettings(path string) Settings {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return settings
	}
	if err := toml.Unmarshal(data, &settings); err != nil {
		return DefaultSettings()
	}

	if strings.TrimSpace(settings.PlanType) == "" {
		settings.PlanType = defaultPlanType
	}
	if strings.TrimSpace(settings.ViewMode) == "" {
		settings.ViewMode = "normal"
	}
	return settings
}

// SaveSettings writes settings to path, creating directories as needed.
func SaveSettings(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
