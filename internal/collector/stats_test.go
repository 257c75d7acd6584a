package collector

import (
	"testing"
	"time"

	"github.com/dreynolds/ccmon-tui/internal/models"
)

func entryAt(ts time.Time, in, out uint64, cost float64, model string) models.UsageEntry {
	return models.UsageEntry{
		Timestamp:    ts,
		InputTokens:  in,
		OutputTokens: out,
		CostUSD:      cost,
		Model:        model,
	}
}

func TestNormalizeModelName(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"claude-opus-4-20250514", "claude-opus-4-20250514"},
		{"claude-sonnet-4-20250514", "claude-sonnet-4-20250514"},
		{"claude-3-5-sonnet-20240620", "claude-3-5-sonnet"},
		{"claude-3-sonnet", "claude-3-sonnet"},
		{"claude-3-opus-20240229", "claude-3-opus"},
		{"claude-3-5-haiku", "claude-3-5-haiku"},
		{"claude-3-haiku", "claude-3-haiku"},
		{"llama-3", "llama-3"},
	}
	for _, tt := range tests {
		if got := normalizeModelName(tt.model); got != tt.want {
			t.Errorf("normalizeModelName(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestProjectStats(t *testing.T) {
	project := Project{
		DecodedPath:  "D:\\code\\alpha",
		DisplayName:  "alpha",
		SessionFiles: []string{"a.jsonl", "b.jsonl"},
	}
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	entries := []models.UsageEntry{
		entryAt(base.Add(time.Hour), 100, 50, 0.5, "claude-sonnet-4"),
		entryAt(base, 10, 5, 0.1, "claude-sonnet-4"),
	}

	stats := projectStats(project, entries)

	if stats.ProjectPath != "D:\\code\\alpha" || stats.DisplayName != "alpha" {
		t.Errorf("identity fields: %+v", stats)
	}
	if stats.TotalInputTokens != 110 || stats.TotalOutputTokens != 55 {
		t.Errorf("token totals: %d/%d", stats.TotalInputTokens, stats.TotalOutputTokens)
	}
	if stats.TotalCostUSD != 0.6 {
		t.Errorf("cost = %v, want 0.6", stats.TotalCostUSD)
	}
	if stats.MessageCount != 2 || stats.SessionCount != 2 {
		t.Errorf("counts: %d msgs, %d sessions", stats.MessageCount, stats.SessionCount)
	}
	if stats.FirstActivity != base.Format(time.RFC3339) {
		t.Errorf("first activity = %q", stats.FirstActivity)
	}
	if stats.LastActivity != base.Add(time.Hour).Format(time.RFC3339) {
		t.Errorf("last activity = %q", stats.LastActivity)
	}
}

func TestDailyUsage(t *testing.T) {
	d1 := time.Date(2026, 8, 24, 23, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 8, 25, 1, 0, 0, 0, time.UTC)
	entries := []models.UsageEntry{
		entryAt(d2, 30, 3, 0.3, "m"),
		entryAt(d1, 10, 1, 0.1, "m"),
		entryAt(d1.Add(time.Minute), 20, 2, 0.2, "m"),
	}

	daily := dailyUsage(entries)
	if len(daily) != 2 {
		t.Fatalf("days = %d, want 2", len(daily))
	}
	if daily[0].Date != "2026-08-24" || daily[1].Date != "2026-08-25" {
		t.Errorf("dates not ascending: %q, %q", daily[0].Date, daily[1].Date)
	}
	if daily[0].InputTokens != 30 || daily[0].MessageCount != 2 {
		t.Errorf("day rollup: %+v", daily[0])
	}
}

func TestModelDistribution(t *testing.T) {
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	entries := []models.UsageEntry{
		entryAt(ts, 700, 50, 0.5, "claude-sonnet-4-20250514"),
		entryAt(ts, 200, 50, 0.2, "claude-3-5-sonnet-20240620"),
	}

	dist := modelDistribution(entries)
	if len(dist) != 2 {
		t.Fatalf("models = %d, want 2", len(dist))
	}
	// Sorted by tokens descending.
	if dist[0].Model != "claude-sonnet-4-20250514" {
		t.Errorf("top model = %q", dist[0].Model)
	}
	if dist[0].Percentage != 75.0 {
		t.Errorf("percentage = %v, want 75", dist[0].Percentage)
	}
	if dist[1].Model != "claude-3-5-sonnet" {
		t.Errorf("normalized model = %q", dist[1].Model)
	}
	if dist[1].Percentage != 25.0 {
		t.Errorf("percentage = %v, want 25", dist[1].Percentage)
	}
}

func TestTransformToBlocks(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 45, 0, 0, time.UTC)
	entries := []models.UsageEntry{
		entryAt(now.Add(-10*time.Hour), 100, 10, 0.1, "m"),
		entryAt(now.Add(-30*time.Minute), 200, 20, 0.2, "m"),
		entryAt(now.Add(-10*time.Minute), 300, 30, 0.3, "m"),
	}

	blocks := transformToBlocks(entries, now)
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	if blocks[0].isActive {
		t.Errorf("old block should not be active")
	}
	if !blocks[1].isActive {
		t.Errorf("current block should be active")
	}
	if blocks[1].totalTokens != 550 {
		t.Errorf("current block tokens = %d, want 550", blocks[1].totalTokens)
	}
	// Block start rounds down to the hour boundary.
	if blocks[1].startTime.Minute() != 0 || blocks[1].startTime.Second() != 0 {
		t.Errorf("block start not on hour boundary: %v", blocks[1].startTime)
	}
}

func TestHourlyBurnRate(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 45, 0, 0, time.UTC)

	// Active block started at 12:00, fully inside the trailing hour, so the
	// full block allocation lands in the window: 600 tokens, $0.60.
	blocks := []sessionBlock{{
		startTime:     time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		actualEndTime: now.Add(-10 * time.Minute),
		totalTokens:   600,
		totalCost:     0.6,
		isActive:      true,
	}}

	tokensPerMin, costPerHour := hourlyBurnRate(blocks, now)
	if tokensPerMin != 10 {
		t.Errorf("tokensPerMin = %v, want 10", tokensPerMin)
	}
	if costPerHour != 0.6 {
		t.Errorf("costPerHour = %v, want 0.6", costPerHour)
	}
}

func TestHourlyBurnRate_OldBlockExcluded(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 45, 0, 0, time.UTC)
	blocks := []sessionBlock{{
		startTime:     now.Add(-8 * time.Hour),
		actualEndTime: now.Add(-6 * time.Hour),
		totalTokens:   1000,
		totalCost:     1.0,
	}}

	tokensPerMin, costPerHour := hourlyBurnRate(blocks, now)
	if tokensPerMin != 0 || costPerHour != 0 {
		t.Errorf("stale block must not contribute: %v, %v", tokensPerMin, costPerHour)
	}
}

func TestTimeToReset(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		start time.Time
		want  uint32
	}{
		{now.Add(-time.Hour), 240},
		{now, 300},
		{now.Add(-299 * time.Minute), 1},
		{now.Add(time.Hour), 300}, // future start clamps to full window
	}
	for _, tt := range tests {
		if got := timeToReset(tt.start, now); got != tt.want {
			t.Errorf("timeToReset(%v) = %d, want %d", tt.start, got, tt.want)
		}
	}
}

func TestTodayStats(t *testing.T) {
	now := time.Now()
	entries := []models.UsageEntry{
		entryAt(now.Add(-time.Minute), 100, 20, 0.5, "m"),
		entryAt(now.Add(-48*time.Hour), 999, 999, 9.9, "m"),
	}

	stats := todayStats(entries, now)
	if stats.InputTokens != 100 || stats.OutputTokens != 20 {
		t.Errorf("today tokens: %d/%d", stats.InputTokens, stats.OutputTokens)
	}
	if stats.TotalTokens != 120 {
		t.Errorf("total = %d, want 120", stats.TotalTokens)
	}
	if stats.CostUSD != 0.5 {
		t.Errorf("cost = %v, want 0.5", stats.CostUSD)
	}
	if stats.MessageCount != 1 {
		t.Errorf("messages = %d, want 1", stats.MessageCount)
	}
}

func TestBuildSnapshot(t *testing.T) {
	now := time.Now().UTC()
	alpha := Project{DecodedPath: "D:\\code\\alpha", DisplayName: "alpha", SessionFiles: []string{"a"}}
	beta := Project{DecodedPath: "D:\\code\\beta", DisplayName: "beta", SessionFiles: []string{"b"}}

	all := []ProjectEntries{
		{Project: alpha, Entries: []models.UsageEntry{
			entryAt(now.Add(-2*time.Hour), 100, 10, 1.0, "claude-sonnet-4-20250514"),
		}},
		{Project: beta, Entries: []models.UsageEntry{
			entryAt(now.Add(-10*time.Minute), 200, 20, 2.0, "claude-sonnet-4-20250514"),
		}},
		{Project: Project{DecodedPath: "empty"}, Entries: nil},
	}

	snap := BuildSnapshot(all, now)

	if len(snap.Projects) != 2 {
		t.Fatalf("projects = %d, want 2 (empty project dropped)", len(snap.Projects))
	}
	// Most recent activity first.
	if snap.Projects[0].DisplayName != "beta" {
		t.Errorf("first project = %q, want beta", snap.Projects[0].DisplayName)
	}

	overall := snap.OverallStats
	if overall.TotalInputTokens != 300 || overall.TotalOutputTokens != 30 {
		t.Errorf("overall tokens: %d/%d", overall.TotalInputTokens, overall.TotalOutputTokens)
	}
	if overall.TotalCostUSD != 3.0 {
		t.Errorf("overall cost = %v, want 3.0", overall.TotalCostUSD)
	}
	if overall.ProjectCount != 2 {
		t.Errorf("project count = %d", overall.ProjectCount)
	}
	if overall.SessionStartTime == "" {
		t.Errorf("expected session start with recent activity")
	}
	if overall.TimeToResetMinutes == 0 || overall.TimeToResetMinutes > sessionDurationMinutes {
		t.Errorf("time to reset = %d", overall.TimeToResetMinutes)
	}
	if overall.BurnRate == nil || overall.BurnRate.TokensPerMinute <= 0 {
		t.Errorf("expected positive burn rate, got %+v", overall.BurnRate)
	}
	if len(snap.DailyUsage) == 0 {
		t.Errorf("daily usage empty")
	}
}

func TestBuildSnapshot_Empty(t *testing.T) {
	snap := BuildSnapshot(nil, time.Now())
	if len(snap.Projects) != 0 || len(snap.DailyUsage) != 0 {
		t.Errorf("empty input should yield empty snapshot")
	}
	if snap.OverallStats.TimeToResetMinutes != sessionDurationMinutes {
		t.Errorf("idle reset = %d, want %d", snap.OverallStats.TimeToResetMinutes, sessionDurationMinutes)
	}
}
