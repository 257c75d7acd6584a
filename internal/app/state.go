// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dreynolds/ccmon-tui/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationInfo represents an informational notification.
	NotificationInfo NotificationType = iota
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationError represents an error notification.
	NotificationError
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationWarning:
		return "warning"
	case NotificationError:
		return "error"
	default:
		return "info"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// SyncView is the slice of sync state the UI renders: the snapshot plus the
// loading/error/animating flags and the liveness heartbeat.
type SyncView struct {
	Snapshot  models.UsageSnapshot
	HasData   bool
	Loading   bool
	Err       string
	Animating bool
	Heartbeat time.Time
}

// StaleAfter is how long after the last heartbeat data is flagged as
// possibly outdated.
const StaleAfter = 15 * time.Second

// Stale reports whether the heartbeat has gone quiet.
func (v SyncView) Stale(now time.Time) bool {
	if v.Heartbeat.IsZero() {
		return false
	}
	return now.Sub(v.Heartbeat) > StaleAfter
}

// State is the shared render state the root model and tabs read. The sync
// controller owns the underlying snapshot; this holds the copy taken on the
// last update signal.
type State struct {
	mu sync.RWMutex

	sync     SyncView
	planType string

	notifications []Notification

	// costAlerted latches after the plan-limit notification fires so a
	// crossing alerts once, not every refresh.
	costAlerted bool
}

// NewState creates an empty state for the given plan type.
func NewState(planType string) *State {
	return &State{planType: planType}
}

// SetSync replaces the rendered sync view.
func (s *State) SetSync(view SyncView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync = view
}

// Sync returns the current sync view.
func (s *State) Sync() SyncView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sync
}

// PlanType returns the configured subscription plan.
func (s *State) PlanType() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.planType
}

// CostLimitCrossed reports whether today's cost has just crossed the plan
// limit. It returns true exactly once per crossing; dropping back below the
// limit re-arms it.
func (s *State) CostLimitCrossed(todayCost, limit float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		return false
	}
	over := todayCost >= limit
	crossed := over && !s.costAlerted
	s.costAlerted = over
	return crossed
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := Notification{
		ID:        uuid.NewString(),
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}
	s.notifications = append(s.notifications, n)

	// Keep only the last 10 notifications
	if len(s.notifications) > 10 {
		s.notifications = s.notifications[len(s.notifications)-10:]
	}
	return n.ID
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.notifications[:0]
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// Notifications returns a copy of all unexpired notifications.
func (s *State) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}
