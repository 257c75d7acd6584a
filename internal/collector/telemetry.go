package collector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dreynolds/ccmon-tui/internal/db"
	"github.com/dreynolds/ccmon-tui/internal/models"
)

// Metric and event names emitted by Claude Code's OTLP exporter.
const (
	metricPrefix     = "claude_code."
	metricTokenUsage = "claude_code.token.usage"
	metricCostUsage  = "claude_code.cost.usage"
	metricSessionCnt = "claude_code.session.count"
	eventAPIRequest  = "claude_code.api_request"
)

// TelemetrySource derives usage data from the sqlite metric store. It has no
// project dimension; project data always comes from session logs.
type TelemetrySource struct {
	store *db.DB
}

// NewTelemetrySource wraps a metric store.
func NewTelemetrySource(store *db.DB) *TelemetrySource {
	return &TelemetrySource{store: store}
}

// UsageData aggregates stored metrics since the given time into a snapshot.
func (t *TelemetrySource) UsageData(ctx context.Context, since time.Time) (models.UsageSnapshot, error) {
	metrics, err := t.store.MetricsSince(ctx, metricPrefix, since.UnixNano())
	if err != nil {
		return models.UsageSnapshot{}, fmt.Errorf("query telemetry metrics: %w", err)
	}

	var overall models.OverallStats
	modelMap := make(map[string]*models.ModelStats)
	dailyMap := make(map[string]*models.DailyUsage)

	modelOf := func(m db.Metric) *models.ModelStats {
		model := m.Model
		if model == "" {
			model = "unknown"
		}
		stats, ok := modelMap[model]
		if !ok {
			stats = &models.ModelStats{Model: model}
			modelMap[model] = stats
		}
		return stats
	}
	dailyOf := func(ns int64) *models.DailyUsage {
		date := nsToLocalDate(ns)
		daily, ok := dailyMap[date]
		if !ok {
			daily = &models.DailyUsage{Date: date}
			dailyMap[date] = daily
		}
		return daily
	}

	for _, m := range metrics {
		switch m.Name {
		case metricTokenUsage:
			value := uint64(m.Value)
			stats := modelOf(m)
			daily := dailyOf(m.TimestampNS)
			switch m.TokenType {
			case "input":
				overall.TotalInputTokens += value
				stats.InputTokens += value
				daily.InputTokens += value
			case "output":
				overall.TotalOutputTokens += value
				stats.OutputTokens += value
				daily.OutputTokens += value
			case "cacheRead":
				overall.CacheReadTokens += value
				stats.CacheReadTokens += value
				daily.CacheReadTokens += value
			case "cacheCreation":
				overall.CacheCreationTokens += value
				stats.CacheCreationTokens += value
				daily.CacheCreationTokens += value
			}
			stats.TotalTokens = stats.InputTokens + stats.OutputTokens

		case metricCostUsage:
			overall.TotalCostUSD += m.Value
			modelOf(m).CostUSD += m.Value
			dailyOf(m.TimestampNS).CostUSD += m.Value

		case metricSessionCnt:
			overall.TotalSessions += uint32(m.Value)
		}
	}

	if events, err := t.store.EventsSince(ctx, eventAPIRequest, since.UnixNano()); err == nil {
		for _, e := range events {
			overall.TotalMessages++
			dailyOf(e.TimestampNS).MessageCount++
		}
	}

	totalTokens := overall.TotalInputTokens + overall.TotalOutputTokens
	distribution := make([]models.ModelStats, 0, len(modelMap))
	for _, stats := range modelMap {
		if totalTokens > 0 {
			stats.Percentage = math.Round(float64(stats.TotalTokens)/float64(totalTokens)*100*100) / 100
		}
		stats.MessageCount = overall.TotalMessages
		distribution = append(distribution, *stats)
	}
	sort.Slice(distribution, func(i, j int) bool {
		return distribution[i].TotalTokens > distribution[j].TotalTokens
	})
	overall.ModelDistribution = distribution

	daily := make([]models.DailyUsage, 0, len(dailyMap))
	for _, d := range dailyMap {
		d.CostUSD = roundCost(d.CostUSD)
		daily = append(daily, *d)
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })

	today := time.Now().Local().Format("2006-01-02")
	for _, d := range daily {
		if d.Date == today {
			overall.TodayStats = models.TodayStats{
				CostUSD:      d.CostUSD,
				InputTokens:  d.InputTokens,
				OutputTokens: d.OutputTokens,
				TotalTokens:  d.InputTokens + d.OutputTokens,
				MessageCount: d.MessageCount,
			}
		}
	}

	overall.TotalCostUSD = roundCost(overall.TotalCostUSD)
	overall.BurnRate = burnRateFromMetrics(metrics, time.Now())

	return models.UsageSnapshot{
		DailyUsage:   daily,
		OverallStats: overall,
	}, nil
}

func nsToLocalDate(ns int64) string {
	return time.Unix(0, ns).Local().Format("2006-01-02")
}

// burnRateFromMetrics extrapolates the trailing-hour consumption rate from
// raw metric rows. The observed span is clamped to [1, 60] minutes so a few
// seconds of data do not produce an absurd rate.
func burnRateFromMetrics(metrics []db.Metric, now time.Time) *models.BurnRate {
	hourAgoNS := now.Add(-time.Hour).UnixNano()

	var tokens uint64
	var cost float64
	var earliestNS, latestNS int64

	for _, m := range metrics {
		if m.TimestampNS < hourAgoNS {
			continue
		}
		if earliestNS == 0 || m.TimestampNS < earliestNS {
			earliestNS = m.TimestampNS
		}
		if m.TimestampNS > latestNS {
			latestNS = m.TimestampNS
		}

		switch m.Name {
		case metricTokenUsage:
			if m.TokenType == "input" || m.TokenType == "output" {
				tokens += uint64(m.Value)
			}
		case metricCostUsage:
			cost += m.Value
		}
	}

	if tokens == 0 {
		return nil
	}

	spanMinutes := 60.0
	if earliestNS > 0 && latestNS > earliestNS {
		spanMinutes = float64(latestNS-earliestNS) / 1e9 / 60
	}
	spanMinutes = math.Min(math.Max(spanMinutes, 1), 60)

	return &models.BurnRate{
		TokensPerMinute: math.Round(float64(tokens)/spanMinutes*100) / 100,
		CostPerHour:     math.Round(cost/spanMinutes*60*10000) / 10000,
	}
}

// telemetryEmpty reports whether the telemetry store yielded no usage at
// all.
func telemetryEmpty(snap models.UsageSnapshot) bool {
	return snap.OverallStats.TotalTokens() == 0 &&
		snap.OverallStats.TotalMessages == 0 &&
		snap.OverallStats.TotalCostUSD == 0
}

// MergeHybrid combines session-log data with telemetry data: project totals
// and session timing stay log-derived so percentages remain consistent, while
// real-time metrics come from telemetry.
func MergeHybrid(jsonl, telemetry models.UsageSnapshot) models.UsageSnapshot {
	merged := jsonl.Clone()

	merged.DailyUsage = telemetry.DailyUsage
	merged.OverallStats.ModelDistribution = telemetry.OverallStats.ModelDistribution
	merged.OverallStats.BurnRate = telemetry.OverallStats.BurnRate
	merged.OverallStats.TodayStats = telemetry.OverallStats.TodayStats
	return merged
}
