package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveDataDir(t *testing.T) {
	t.Setenv("CLAUDE_CONFIG_DIR", "")

	if got := ResolveDataDir("/custom/path"); got != "/custom/path" {
		t.Errorf("override ignored, got %q", got)
	}

	t.Setenv("CLAUDE_CONFIG_DIR", "/env/claude")
	if got := ResolveDataDir(""); got != "/env/claude" {
		t.Errorf("env var ignored, got %q", got)
	}
	// Override still beats the env var.
	if got := ResolveDataDir("/custom"); got != "/custom" {
		t.Errorf("override should beat env var, got %q", got)
	}

	t.Setenv("CLAUDE_CONFIG_DIR", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := ResolveDataDir(""); got != filepath.Join(home, ".claude") {
		t.Errorf("default = %q, want ~/.claude", got)
	}
}

func TestConfig_ProjectsDir(t *testing.T) {
	cfg := &Config{DataPath: "/data/claude"}
	if got := cfg.ProjectsDir(); got != filepath.Join("/data/claude", "projects") {
		t.Errorf("ProjectsDir = %q", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "")
	if got := getEnvDuration("TEST_DURATION", 5*time.Second); got != 5*time.Second {
		t.Errorf("default not used: %v", got)
	}

	t.Setenv("TEST_DURATION", "30s")
	if got := getEnvDuration("TEST_DURATION", time.Second); got != 30*time.Second {
		t.Errorf("duration parse: %v", got)
	}

	// Bare integers are seconds.
	t.Setenv("TEST_DURATION", "10")
	if got := getEnvDuration("TEST_DURATION", time.Second); got != 10*time.Second {
		t.Errorf("seconds parse: %v", got)
	}

	t.Setenv("TEST_DURATION", "bogus")
	if got := getEnvDuration("TEST_DURATION", 2*time.Second); got != 2*time.Second {
		t.Errorf("invalid should fall back: %v", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "")
	if got := getEnvInt("TEST_INT", 4318); got != 4318 {
		t.Errorf("default not used: %v", got)
	}

	t.Setenv("TEST_INT", "9999")
	if got := getEnvInt("TEST_INT", 4318); got != 9999 {
		t.Errorf("int parse: %v", got)
	}

	t.Setenv("TEST_INT", "bogus")
	if got := getEnvInt("TEST_INT", 4318); got != 4318 {
		t.Errorf("invalid should fall back: %v", got)
	}
}

func TestTelemetryEnabled(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"0", false},
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"no", false},
	}
	for _, tt := range tests {
		t.Setenv("CLAUDE_CODE_ENABLE_TELEMETRY", tt.value)
		if got := telemetryEnabled(); got != tt.want {
			t.Errorf("telemetryEnabled(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestSettings_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")

	in := Settings{PlanType: "max5", ViewMode: "compact", AlwaysOnTop: true}
	if err := SaveSettings(path, in); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	out := LoadSettings(path)
	if out != in {
		t.Errorf("LoadSettings = %+v, want %+v", out, in)
	}
}

func TestLoadSettings_Missing(t *testing.T) {
	out := LoadSettings(filepath.Join(t.TempDir(), "nope.toml"))
	if out != DefaultSettings() {
		t.Errorf("missing file should yield defaults, got %+v", out)
	}
}

func TestLoadSettings_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("{{{not toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := LoadSettings(path)
	if out != DefaultSettings() {
		t.Errorf("corrupt file should yield defaults, got %+v", out)
	}
}

func TestLoadSettings_EmptyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("plan_type = \"\"\nview_mode = \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := LoadSettings(path)
	if out.PlanType != "pro" || out.ViewMode != "normal" {
		t.Errorf("empty fields should fall back, got %+v", out)
	}
}
