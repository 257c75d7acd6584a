// Package models defines the usage data types shared across the application.
package models

import "time"

// UsageEntry is a single processed usage record extracted from a session log
// event, with token counts and the cost attributed to it.
type UsageEntry struct {
	Timestamp           time.Time `json:"timestamp"`
	InputTokens         uint64    `json:"inputTokens"`
	OutputTokens        uint64    `json:"outputTokens"`
	CacheCreationTokens uint64    `json:"cacheCreationTokens"`
	CacheReadTokens     uint64    `json:"cacheReadTokens"`
	CostUSD             float64   `json:"costUsd"`
	Model               string    `json:"model"`
	MessageID           string    `json:"messageId"`
	RequestID           string    `json:"requestId"`
}

// TotalTokens returns input + output tokens for the entry.
func (e UsageEntry) TotalTokens() uint64 {
	return e.InputTokens + e.OutputTokens
}

// ProjectStats holds aggregate usage for a single project. A project record
// is always replaced wholesale, never field-merged.
type ProjectStats struct {
	ProjectPath         string  `json:"projectPath"`
	DisplayName         string  `json:"displayName"`
	TotalInputTokens    uint64  `json:"totalInputTokens"`
	TotalOutputTokens   uint64  `json:"totalOutputTokens"`
	CacheCreationTokens uint64  `json:"cacheCreationTokens"`
	CacheReadTokens     uint64  `json:"cacheReadTokens"`
	TotalCostUSD        float64 `json:"totalCostUsd"`
	MessageCount        uint32  `json:"messageCount"`
	SessionCount        uint32  `json:"sessionCount"`
	FirstActivity       string  `json:"firstActivity,omitempty"`
	LastActivity        string  `json:"lastActivity,omitempty"`
}

// TotalTokens returns the combined input and output tokens for the project.
func (p ProjectStats) TotalTokens() uint64 {
	return p.TotalInputTokens + p.TotalOutputTokens
}

// DailyUsage is the usage rollup for one calendar date (YYYY-MM-DD).
type DailyUsage struct {
	Date                string  `json:"date"`
	InputTokens         uint64  `json:"inputTokens"`
	OutputTokens        uint64  `json:"outputTokens"`
	CacheCreationTokens uint64  `json:"cacheCreationTokens"`
	CacheReadTokens     uint64  `json:"cacheReadTokens"`
	CostUSD             float64 `json:"costUsd"`
	MessageCount        uint32  `json:"messageCount"`
}

// ModelStats is the usage attributed to one (normalized) model.
type ModelStats struct {
	Model               string  `json:"model"`
	InputTokens         uint64  `json:"inputTokens"`
	OutputTokens        uint64  `json:"outputTokens"`
	CacheCreationTokens uint64  `json:"cacheCreationTokens"`
	CacheReadTokens     uint64  `json:"cacheReadTokens"`
	TotalTokens         uint64  `json:"totalTokens"`
	CostUSD             float64 `json:"costUsd"`
	MessageCount        uint32  `json:"messageCount"`
	Percentage          float64 `json:"percentage"`
}

// BurnRate is the instantaneous consumption rate for the active session
// window.
type BurnRate struct {
	TokensPerMinute float64 `json:"tokensPerMinute"`
	CostPerHour     float64 `json:"costPerHour"`
}

// TodayStats is usage accumulated since local midnight.
type TodayStats struct {
	CostUSD      float64 `json:"costUsd"`
	InputTokens  uint64  `json:"inputTokens"`
	OutputTokens uint64  `json:"outputTokens"`
	TotalTokens  uint64  `json:"totalTokens"`
	MessageCount uint32  `json:"messageCount"`
}

// OverallStats aggregates usage across all projects plus derived metrics.
type OverallStats struct {
	TotalInputTokens    uint64          `json:"totalInputTokens"`
	TotalOutputTokens   uint64          `json:"totalOutputTokens"`
	CacheCreationTokens uint64          `json:"cacheCreationTokens"`
	CacheReadTokens     uint64          `json:"cacheReadTokens"`
	TotalCostUSD        float64         `json:"totalCostUsd"`
	TotalMessages       uint32          `json:"totalMessages"`
	TotalSessions       uint32          `json:"totalSessions"`
	ProjectCount        uint32          `json:"projectCount"`
	ModelDistribution   []ModelStats    `json:"modelDistribution"`
	SessionStartTime    string          `json:"sessionStartTime,omitempty"`
	TimeToResetMinutes  uint32          `json:"timeToResetMinutes"`
	BurnRate            *BurnRate       `json:"burnRate,omitempty"`
	TodayStats          TodayStats      `json:"todayStats"`
	DataSource          *DataSourceInfo `json:"dataSource,omitempty"`
}

// TotalTokens returns the combined input and output token total.
func (o OverallStats) TotalTokens() uint64 {
	return o.TotalInputTokens + o.TotalOutputTokens
}

// UsageSnapshot is the complete reconciled usage state at a point in time.
type UsageSnapshot struct {
	Projects     []ProjectStats `json:"projects"`
	DailyUsage   []DailyUsage   `json:"dailyUsage"`
	OverallStats OverallStats   `json:"overallStats"`
}

// Clone returns a deep copy of the snapshot. The sync layer relies on merges
// producing fresh values so identity comparison can detect change.
func (s UsageSnapshot) Clone() UsageSnapshot {
	out := UsageSnapshot{
		Projects:     make([]ProjectStats, len(s.Projects)),
		DailyUsage:   make([]DailyUsage, len(s.DailyUsage)),
		OverallStats: s.OverallStats,
	}
	copy(out.Projects, s.Projects)
	copy(out.DailyUsage, s.DailyUsage)

	if len(s.OverallStats.ModelDistribution) > 0 {
		dist := make([]ModelStats, len(s.OverallStats.ModelDistribution))
		copy(dist, s.OverallStats.ModelDistribution)
		out.OverallStats.ModelDistribution = dist
	}
	if s.OverallStats.BurnRate != nil {
		br := *s.OverallStats.BurnRate
		out.OverallStats.BurnRate = &br
	}
	if s.OverallStats.DataSource != nil {
		ds := *s.OverallStats.DataSource
		out.OverallStats.DataSource = &ds
	}
	return out
}

// ProjectByPath returns the project with the given path, or nil.
func (s UsageSnapshot) ProjectByPath(path string) *ProjectStats {
	for i := range s.Projects {
		if s.Projects[i].ProjectPath == path {
			return &s.Projects[i]
		}
	}
	return nil
}
