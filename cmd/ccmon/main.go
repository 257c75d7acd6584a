// Package main is the entry point for the ccmon TUI, a live Claude Code
// usage and cost monitor. It wires configuration, the collector service,
// the sync controller, and the view-mode machine into a Bubble Tea program.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dreynolds/ccmon-tui/internal/app"
	"github.com/dreynolds/ccmon-tui/internal/collector"
	"github.com/dreynolds/ccmon-tui/internal/config"
	"github.com/dreynolds/ccmon-tui/internal/db"
	"github.com/dreynolds/ccmon-tui/internal/logger"
	syncctl "github.com/dreynolds/ccmon-tui/internal/sync"
	"github.com/dreynolds/ccmon-tui/internal/ui/tabs/overall"
	"github.com/dreynolds/ccmon-tui/internal/ui/tabs/projects"
	"github.com/dreynolds/ccmon-tui/internal/version"
	"github.com/dreynolds/ccmon-tui/internal/viewmode"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	// 1. Load configuration from .env files and environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Logs go to a file; the TUI owns the terminal.
	closeLog := logger.Init(cfg.LogPath)
	defer closeLog()
	logger.Info("starting", "version", version.Info())

	settings := config.LoadSettings(cfg.SettingsPath)

	// 2. Open the telemetry store when enabled. A broken store falls back
	// to session-log parsing only.
	var store *db.DB
	if cfg.TelemetryEnabled {
		store, err = db.New(cfg.DatabasePath)
		if err != nil {
			logger.Warn("telemetry store unavailable", "err", err)
		} else {
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					logger.Warn("closing telemetry store", "err", closeErr)
				}
			}()
		}
	}

	// 3. Start the collector service: directory watching, incremental
	// cache, push broadcasting.
	service, err := collector.New(cfg, store)
	if err != nil {
		return fmt.Errorf("failed to start collector: %w", err)
	}
	defer service.Close()

	if !service.CheckDataDirectory(cfg.DataPath) {
		logger.Warn("projects directory not found", "dir", cfg.ProjectsDir())
	}

	// 4. Start synchronization over the collector.
	controller := syncctl.NewController(service, cfg.DataPath)
	controller.Start(context.Background(), syncctl.StrategyFor(cfg.RefreshStrategy))
	defer controller.Close()

	// 5. Set up the view-mode machine over the hosting terminal window.
	window := viewmode.NewTerminalWindow()
	window.SetAlwaysOnTop(settings.AlwaysOnTop)
	machine := viewmode.NewMachine(window, viewmode.ParseMode(settings.ViewMode))
	defer machine.Close()

	// 6. Create the root model and its tabs. Tabs share the render state.
	state := app.NewState(settings.PlanType)
	model := app.NewModel(controller, machine, state)
	model.SetTabs([]app.Tab{
		overall.New(state),
		projects.New(state),
	})

	// 7. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),       // Use alternate screen buffer (full terminal)
		tea.WithMouseCellMotion(), // Mouse motion feeds idle tracking
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	// 8. Run the TUI program. Blocks until the user quits or an error
	// occurs.
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	// Persist the display density the user left off in.
	settings.ViewMode = string(machine.Mode())
	settings.AlwaysOnTop = window.IsAlwaysOnTop()
	if err := config.SaveSettings(cfg.SettingsPath, settings); err != nil {
		logger.Warn("saving settings", "err", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`ccmon - live Claude Code usage and cost monitor

Usage:
  ccmon [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  m               Cycle view mode (normal, compact, mini)
  Enter           Restore from mini view
  Tab, 1-2        Switch between tabs (Overall, Projects)
  j/k, Up/Down    Navigate the project list
  r               Refresh data
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  CCMON_DATA_PATH           Claude data directory override
  CCMON_DB_PATH             Telemetry database path
  CCMON_LOG_PATH            Log file path
  CCMON_SETTINGS_PATH       Settings file path
  CCMON_REFRESH_INTERVAL    Refresh cadence (default: 5s)
  CCMON_REFRESH_STRATEGY    push or poll (default: push)
  CCMON_COLLECTOR_PORT      OTLP/HTTP telemetry listener port (default: 4318)
  CLAUDE_CONFIG_DIR         Claude data directory (standard)
  CLAUDE_CODE_ENABLE_TELEMETRY  Enable the telemetry data source

Configuration:
  The application looks for .env files in the current directory and in
  ~/.config/ccmon/.env. User preferences (plan type, view mode) persist
  in ~/.config/ccmon/settings.toml.`)
}
