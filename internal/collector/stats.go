package collector

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dreynolds/ccmon-tui/internal/models"
)

// sessionDurationMinutes is the length of a Claude usage session window.
const sessionDurationMinutes = 300

// ProjectEntries pairs a project with its parsed usage entries.
type ProjectEntries struct {
	Project Project
	Entries []models.UsageEntry
}

// BuildSnapshot computes the complete usage snapshot from per-project
// entries. Projects are sorted by last activity, most recent first; daily
// usage ascends by date.
func BuildSnapshot(all []ProjectEntries, now time.Time) models.UsageSnapshot {
	var allEntries []models.UsageEntry
	var projects []models.ProjectStats

	for _, pe := range all {
		if len(pe.Entries) == 0 {
			continue
		}
		allEntries = append(allEntries, pe.Entries...)
		projects = append(projects, projectStats(pe.Project, pe.Entries))
	}

	sort.Slice(allEntries, func(i, j int) bool {
		return allEntries[i].Timestamp.Before(allEntries[j].Timestamp)
	})

	overall := overallStats(projects, allEntries, now)

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].LastActivity > projects[j].LastActivity
	})

	return models.UsageSnapshot{
		Projects:     projects,
		DailyUsage:   dailyUsage(allEntries),
		OverallStats: overall,
	}
}

func projectStats(project Project, entries []models.UsageEntry) models.ProjectStats {
	stats := models.ProjectStats{
		ProjectPath:  project.DecodedPath,
		DisplayName:  project.DisplayName,
		SessionCount: uint32(len(project.SessionFiles)),
	}

	for _, e := range entries {
		stats.TotalInputTokens += e.InputTokens
		stats.TotalOutputTokens += e.OutputTokens
		stats.CacheCreationTokens += e.CacheCreationTokens
		stats.CacheReadTokens += e.CacheReadTokens
		stats.TotalCostUSD += e.CostUSD
		stats.MessageCount++

		ts := e.Timestamp.Format(time.RFC3339)
		if stats.FirstActivity == "" || ts < stats.FirstActivity {
			stats.FirstActivity = ts
		}
		if ts > stats.LastActivity {
			stats.LastActivity = ts
		}
	}

	stats.TotalCostUSD = roundCost(stats.TotalCostUSD)
	return stats
}

func dailyUsage(entries []models.UsageEntry) []models.DailyUsage {
	dailyMap := make(map[string]*models.DailyUsage)

	for _, e := range entries {
		key := e.Timestamp.Format("2006-01-02")
		daily, ok := dailyMap[key]
		if !ok {
			daily = &models.DailyUsage{Date: key}
			dailyMap[key] = daily
		}
		daily.InputTokens += e.InputTokens
		daily.OutputTokens += e.OutputTokens
		daily.CacheCreationTokens += e.CacheCreationTokens
		daily.CacheReadTokens += e.CacheReadTokens
		daily.CostUSD += e.CostUSD
		daily.MessageCount++
	}

	out := make([]models.DailyUsage, 0, len(dailyMap))
	for _, d := range dailyMap {
		d.CostUSD = roundCost(d.CostUSD)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// normalizeModelName collapses model identifiers for distribution grouping.
// 4-series names keep their full identifier; 3-series names collapse to the
// family.
func normalizeModelName(model string) string {
	m := strings.ToLower(model)

	for _, family := range []string{"opus", "sonnet", "haiku"} {
		if strings.Contains(m, family+"-4-") {
			return m
		}
	}

	switch {
	case strings.Contains(m, "opus"):
		return "claude-3-opus"
	case strings.Contains(m, "sonnet"):
		if strings.Contains(m, "3.5") || strings.Contains(m, "3-5") {
			return "claude-3-5-sonnet"
		}
		return "claude-3-sonnet"
	case strings.Contains(m, "haiku"):
		if strings.Contains(m, "3.5") || strings.Contains(m, "3-5") {
			return "claude-3-5-haiku"
		}
		return "claude-3-haiku"
	}
	return model
}

func modelDistribution(entries []models.UsageEntry) []models.ModelStats {
	modelMap := make(map[string]*models.ModelStats)
	var totalTokens uint64

	for _, e := range entries {
		key := normalizeModelName(e.Model)
		entryTotal := e.InputTokens + e.OutputTokens
		totalTokens += entryTotal

		stats, ok := modelMap[key]
		if !ok {
			stats = &models.ModelStats{Model: key}
			modelMap[key] = stats
		}
		stats.InputTokens += e.InputTokens
		stats.OutputTokens += e.OutputTokens
		stats.CacheCreationTokens += e.CacheCreationTokens
		stats.CacheReadTokens += e.CacheReadTokens
		stats.CostUSD += e.CostUSD
		stats.MessageCount++
		stats.TotalTokens += entryTotal
	}

	out := make([]models.ModelStats, 0, len(modelMap))
	for _, m := range modelMap {
		if totalTokens > 0 {
			m.Percentage = math.Round(float64(m.TotalTokens)/float64(totalTokens)*100*100) / 100
		}
		m.CostUSD = roundCost(m.CostUSD)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalTokens > out[j].TotalTokens })
	return out
}

// sessionBlock is a 5-hour usage block starting at an hour boundary, used
// for proportional burn-rate allocation.
type sessionBlock struct {
	startTime     time.Time
	actualEndTime time.Time
	totalTokens   uint64
	totalCost     float64
	isActive      bool
}

// roundToHour truncates a timestamp to its hour boundary.
func roundToHour(t time.Time) time.Time {
	return t.Truncate(time.Hour)
}

// transformToBlocks splits timestamp-ordered entries into 5-hour session
// blocks. The final block is active while its window extends past now.
func transformToBlocks(entries []models.UsageEntry, now time.Time) []sessionBlock {
	if len(entries) == 0 {
		return nil
	}

	sessionDuration := sessionDurationMinutes * time.Minute
	var blocks []sessionBlock
	var current *sessionBlock

	for _, e := range entries {
		if current == nil || !e.Timestamp.Before(current.startTime.Add(sessionDuration)) {
			if current != nil {
				blocks = append(blocks, *current)
			}
			current = &sessionBlock{
				startTime:     roundToHour(e.Timestamp),
				actualEndTime: e.Timestamp,
			}
		}
		current.totalTokens += e.InputTokens + e.OutputTokens
		current.totalCost += e.CostUSD
		current.actualEndTime = e.Timestamp
	}

	if current != nil {
		if current.startTime.Add(sessionDuration).After(now) {
			current.isActive = true
		}
		blocks = append(blocks, *current)
	}
	return blocks
}

// hourlyBurnRate allocates block usage proportionally onto the trailing
// hour. Returns tokens per minute and cost per hour.
func hourlyBurnRate(blocks []sessionBlock, now time.Time) (float64, float64) {
	if len(blocks) == 0 {
		return 0, 0
	}

	oneHourAgo := now.Add(-time.Hour)
	var totalTokens, totalCost float64

	for _, block := range blocks {
		sessionEnd := block.actualEndTime
		if block.isActive {
			sessionEnd = now
		}
		if sessionEnd.Before(oneHourAgo) {
			continue
		}

		startInHour := block.startTime
		if startInHour.Before(oneHourAgo) {
			startInHour = oneHourAgo
		}
		endInHour := sessionEnd
		if endInHour.After(now) {
			endInHour = now
		}
		if !endInHour.After(startInHour) {
			continue
		}

		sessionMinutes := sessionEnd.Sub(block.startTime).Minutes()
		hourMinutes := endInHour.Sub(startInHour).Minutes()
		if sessionMinutes > 0 {
			proportion := hourMinutes / sessionMinutes
			totalTokens += float64(block.totalTokens) * proportion
			totalCost += block.totalCost * proportion
		}
	}

	if totalTokens <= 0 {
		return 0, 0
	}
	return totalTokens / 60, totalCost
}

// timeToReset returns minutes remaining in the current session window.
func timeToReset(sessionStart, now time.Time) uint32 {
	elapsed := int64(now.Sub(sessionStart).Minutes())
	if elapsed < 0 {
		return sessionDurationMinutes
	}
	remaining := sessionDurationMinutes - elapsed%sessionDurationMinutes
	return uint32(remaining)
}

func todayStats(entries []models.UsageEntry, now time.Time) models.TodayStats {
	today := now.Local().Format("2006-01-02")
	var stats models.TodayStats

	for _, e := range entries {
		if e.Timestamp.Local().Format("2006-01-02") != today {
			continue
		}
		stats.InputTokens += e.InputTokens
		stats.OutputTokens += e.OutputTokens
		stats.CostUSD += e.CostUSD
		stats.MessageCount++
	}
	stats.TotalTokens = stats.InputTokens + stats.OutputTokens
	stats.CostUSD = roundCost(stats.CostUSD)
	return stats
}

// overallStats combines project totals with derived metrics: model split,
// today-since-midnight totals, session timing, burn rate. Entries must be
// sorted by timestamp.
func overallStats(projects []models.ProjectStats, entries []models.UsageEntry, now time.Time) models.OverallStats {
	stats := models.OverallStats{
		ProjectCount:       uint32(len(projects)),
		TimeToResetMinutes: sessionDurationMinutes,
	}

	for _, p := range projects {
		stats.TotalInputTokens += p.TotalInputTokens
		stats.TotalOutputTokens += p.TotalOutputTokens
		stats.CacheCreationTokens += p.CacheCreationTokens
		stats.CacheReadTokens += p.CacheReadTokens
		stats.TotalCostUSD += p.TotalCostUSD
		stats.TotalMessages += p.MessageCount
		stats.TotalSessions += p.SessionCount
	}
	stats.TotalCostUSD = roundCost(stats.TotalCostUSD)
	stats.ModelDistribution = modelDistribution(entries)
	stats.TodayStats = todayStats(entries, now)

	if len(entries) == 0 {
		return stats
	}

	windowStart := now.Add(-sessionDurationMinutes * time.Minute)
	var firstRecent time.Time
	for _, e := range entries {
		if !e.Timestamp.Before(windowStart) {
			firstRecent = e.Timestamp
			break
		}
	}
	if firstRecent.IsZero() {
		return stats
	}

	sessionStart := roundToHour(firstRecent)
	stats.SessionStartTime = sessionStart.Format(time.RFC3339)
	stats.TimeToResetMinutes = timeToReset(sessionStart, now)

	blocks := transformToBlocks(entries, now)
	tokensPerMin, costPerHour := hourlyBurnRate(blocks, now)
	if tokensPerMin > 0 {
		stats.BurnRate = &models.BurnRate{
			TokensPerMinute: math.Round(tokensPerMin*100) / 100,
			CostPerHour:     math.Round(costPerHour*10000) / 10000,
		}
	}
	return stats
}
