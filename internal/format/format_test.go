package format

import (
	"testing"
	"time"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1_000, "1.0K"},
		{15_400, "15.4K"},
		{2_500_000, "2.50M"},
		{3_000_000_000, "3.00B"},
	}
	for _, tt := range tests {
		if got := Tokens(tt.in); got != tt.want {
			t.Errorf("Tokens(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCost(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{0.0042, "$0.0042"},
		{0.01, "$0.01"},
		{12.5, "$12.50"},
		{140, "$140.00"},
	}
	for _, tt := range tests {
		if got := Cost(tt.in); got != tt.want {
			t.Errorf("Cost(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		in   uint32
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := Count(tt.in); got != tt.want {
			t.Errorf("Count(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMinutes(t *testing.T) {
	if got := Minutes(45); got != "45m" {
		t.Errorf("Minutes(45) = %q", got)
	}
	if got := Minutes(135); got != "2h 15m" {
		t.Errorf("Minutes(135) = %q", got)
	}
}

func TestRate(t *testing.T) {
	if got := Rate(80); got != "80 tok/min" {
		t.Errorf("Rate(80) = %q", got)
	}
	if got := Rate(12_345); got != "12.3K tok/min" {
		t.Errorf("Rate(12345) = %q", got)
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, "never"},
		{now.Add(-2 * time.Second), "just now"},
		{now.Add(-30 * time.Second), "30s ago"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-49 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		if got := RelativeTime(tt.t, now); got != tt.want {
			t.Errorf("RelativeTime(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestShortDate(t *testing.T) {
	if got := ShortDate("2026-08-20"); got != "Aug 20" {
		t.Errorf("ShortDate = %q, want Aug 20", got)
	}
	if got := ShortDate("garbage"); got != "garbage" {
		t.Errorf("ShortDate(garbage) = %q", got)
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(42.26); got != "42.3%" {
		t.Errorf("Percent(42.26) = %q", got)
	}
	if got := Percent(100); got != "100.0%" {
		t.Errorf("Percent(100) = %q", got)
	}
}
