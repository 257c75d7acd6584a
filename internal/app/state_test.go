package app

import (
	"fmt"
	"testing"
	"time"
)

func TestAddNotification(t *testing.T) {
	state := NewState("pro")

	id := state.AddNotification(NotificationInfo, "hello", time.Minute)
	if id == "" {
		t.Fatal("AddNotification returned empty ID")
	}

	got := state.Notifications()
	if len(got) != 1 {
		t.Fatalf("got %d notifications, want 1", len(got))
	}
	if got[0].Message != "hello" || got[0].Type != NotificationInfo {
		t.Errorf("unexpected notification: %+v", got[0])
	}
}

func TestRemoveNotification(t *testing.T) {
	state := NewState("pro")
	id := state.AddNotification(NotificationWarning, "one", time.Minute)
	state.AddNotification(NotificationError, "two", time.Minute)

	state.RemoveNotification(id)

	got := state.Notifications()
	if len(got) != 1 || got[0].Message != "two" {
		t.Errorf("remove left %+v", got)
	}
}

func TestNotifications_CappedAtTen(t *testing.T) {
	state := NewState("pro")
	for i := 0; i < 15; i++ {
		state.AddNotification(NotificationInfo, fmt.Sprintf("n%d", i), time.Minute)
	}

	got := state.Notifications()
	if len(got) != 10 {
		t.Fatalf("got %d notifications, want 10", len(got))
	}
	if got[0].Message != "n5" {
		t.Errorf("oldest kept = %q, want n5", got[0].Message)
	}
}

func TestClearExpiredNotifications(t *testing.T) {
	state := NewState("pro")
	state.AddNotification(NotificationInfo, "fleeting", time.Nanosecond)
	state.AddNotification(NotificationInfo, "lasting", time.Minute)
	time.Sleep(5 * time.Millisecond)

	state.ClearExpiredNotifications()

	got := state.Notifications()
	if len(got) != 1 || got[0].Message != "lasting" {
		t.Errorf("expiry left %+v", got)
	}
}

func TestNotification_ZeroDurationNeverExpires(t *testing.T) {
	n := Notification{CreatedAt: time.Now().Add(-time.Hour)}
	if n.IsExpired() {
		t.Error("zero-duration notification should not expire")
	}
}

func TestCostLimitCrossed_FiresOncePerCrossing(t *testing.T) {
	state := NewState("pro")

	if state.CostLimitCrossed(10, 18) {
		t.Error("below the limit should not fire")
	}
	if !state.CostLimitCrossed(20, 18) {
		t.Error("first crossing should fire")
	}
	if state.CostLimitCrossed(21, 18) {
		t.Error("staying over the limit should not re-fire")
	}

	// Dropping back below re-arms the latch.
	if state.CostLimitCrossed(5, 18) {
		t.Error("dropping below should not fire")
	}
	if !state.CostLimitCrossed(19, 18) {
		t.Error("second crossing should fire again")
	}
}

func TestCostLimitCrossed_ZeroLimitDisabled(t *testing.T) {
	state := NewState("custom")
	if state.CostLimitCrossed(100, 0) {
		t.Error("zero limit should disable the alert")
	}
}

func TestSyncView_Stale(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		heartbeat time.Time
		want      bool
	}{
		{"fresh", now.Add(-time.Second), false},
		{"at threshold", now.Add(-StaleAfter), false},
		{"quiet", now.Add(-StaleAfter - time.Second), true},
		{"never heard", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := SyncView{Heartbeat: tt.heartbeat}
			if got := v.Stale(now); got != tt.want {
				t.Errorf("Stale() = %v, want %v", got, tt.want)
			}
		})
	}
}
