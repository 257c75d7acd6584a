package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/dreynolds/ccmon-tui/internal/logger"
	syncctl "github.com/dreynolds/ccmon-tui/internal/sync"
)

const (
	// DefaultTickInterval is the interval between housekeeping ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// waitForSyncCmd blocks on the controller's update channel and converts the
// next signal into a message. The caller re-issues it after each receipt.
func waitForSyncCmd(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-updates
		return SyncUpdateMsg{}
	}
}

// waitForViewModeCmd blocks on the machine's update channel.
func waitForViewModeCmd(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-updates
		return ViewModeUpdateMsg{}
	}
}

// refreshCmd triggers a manual full refetch.
func refreshCmd(c *syncctl.Controller) tea.Cmd {
	return func() tea.Msg {
		return RefreshDoneMsg{Err: c.FullRefetch(context.Background())}
	}
}

// desktopNotifyCmd posts a native desktop notification. Failures are logged
// and never affect the UI.
func desktopNotifyCmd(title, message string) tea.Cmd {
	return func() tea.Msg {
		err := beeep.Notify(title, message, "")
		if err != nil {
			logger.Warn("desktop notification failed", "err", err)
		}
		return DesktopNotifyDoneMsg{Err: err}
	}
}

// clearNotificationCmd removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifyErrorCmd adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// notifyInfoCmd adds an informational notification.
func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyWarningCmd adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationWarning,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}
