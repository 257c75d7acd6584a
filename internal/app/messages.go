package app

import "time"

// TickMsg is sent periodically to expire notifications and refresh the
// staleness indicator.
type TickMsg struct {
	Time time.Time
}

// SyncUpdateMsg signals that the sync controller's observable state changed.
// The receiver re-reads the controller; the message carries no payload.
type SyncUpdateMsg struct{}

// ViewModeUpdateMsg signals that the view-mode machine changed mode or tab.
type ViewModeUpdateMsg struct{}

// RefreshDoneMsg reports the outcome of a manual full refetch.
type RefreshDoneMsg struct {
	Err error
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// DesktopNotifyDoneMsg reports whether the desktop notification was posted.
// Failures are informational only.
type DesktopNotifyDoneMsg struct {
	Err error
}
