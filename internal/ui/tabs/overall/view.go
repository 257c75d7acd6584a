package overall

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dreynolds/ccmon-tui/internal/collector"
	"github.com/dreynolds/ccmon-tui/internal/format"
	"github.com/dreynolds/ccmon-tui/internal/ui/components"
	"github.com/dreynolds/ccmon-tui/internal/ui/styles"
)

// View renders the overall tab content.
func (m *Model) View() string {
	view := m.state.Sync()
	if !view.HasData {
		return components.RenderSpinnerCentered(m.spinner, m.width, max(1, m.height))
	}
	stats := view.Snapshot.OverallStats

	var sections []string
	sections = append(sections, m.renderTotalsCard())
	sections = append(sections, m.renderSessionCard())
	sections = append(sections, m.renderDailyCard())
	if len(stats.ModelDistribution) > 0 {
		sections = append(sections, m.renderModelCard())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// highlight wraps a figure in the flash style while the animation window is
// open.
func (m *Model) highlight(s string) string {
	if m.state.Sync().Animating {
		return styles.FlashStyle.Render(s)
	}
	return s
}

func (m *Model) renderTotalsCard() string {
	view := m.state.Sync()
	stats := view.Snapshot.OverallStats

	rows := []string{
		fmt.Sprintf("%-14s %s", "Total cost", m.highlight(format.Cost(stats.TotalCostUSD))),
		fmt.Sprintf("%-14s %s in / %s out", "Tokens",
			format.Tokens(stats.TotalInputTokens), format.Tokens(stats.TotalOutputTokens)),
		fmt.Sprintf("%-14s %s created / %s read", "Cache",
			format.Tokens(stats.CacheCreationTokens), format.Tokens(stats.CacheReadTokens)),
		fmt.Sprintf("%-14s %s messages, %s sessions, %d projects", "Activity",
			format.Count(stats.TotalMessages), format.Count(stats.TotalSessions), stats.ProjectCount),
		fmt.Sprintf("%-14s %s (%s tok, %s msgs)", "Today",
			m.highlight(format.Cost(stats.TodayStats.CostUSD)),
			format.Tokens(stats.TodayStats.TotalTokens),
			format.Count(stats.TodayStats.MessageCount)),
	}
	if stats.DataSource != nil {
		rows = append(rows, styles.HelpStyle.Render(
			fmt.Sprintf("%-14s %s", "Source", stats.DataSource.DisplayName)))
	}
	if view.Stale(time.Now()) {
		rows = append(rows, styles.StaleStyle.Render("data may be outdated"))
	}

	content := styles.CardTitleStyle.Render("Usage") + "\n" + strings.Join(rows, "\n")
	return styles.CardStyle.Width(m.cardWidth()).Render(content)
}

func (m *Model) renderSessionCard() string {
	stats := m.state.Sync().Snapshot.OverallStats
	limits := collector.PlanLimitsFor(m.state.PlanType())
	innerWidth := m.cardWidth() - 6

	var rows []string
	if stats.BurnRate != nil {
		rows = append(rows, fmt.Sprintf("%-14s %s (%s/h)", "Burn rate",
			m.highlight(format.Rate(stats.BurnRate.TokensPerMinute)),
			format.Cost(stats.BurnRate.CostPerHour)))
	} else {
		rows = append(rows, fmt.Sprintf("%-14s %s", "Burn rate",
			styles.HelpStyle.Render("no active session")))
	}
	rows = append(rows, components.SessionTimeBar(stats.TimeToResetMinutes, innerWidth))
	rows = append(rows, components.PlanUsageBar("Tokens",
		float64(stats.TodayStats.TotalTokens), float64(limits.TokenLimit),
		func(v float64) string { return format.Tokens(uint64(v)) }, innerWidth))
	rows = append(rows, components.PlanUsageBar("Cost",
		stats.TodayStats.CostUSD, limits.CostLimit,
		func(v float64) string { return format.Cost(v) }, innerWidth))
	rows = append(rows, components.PlanUsageBar("Messages",
		float64(stats.TodayStats.MessageCount), float64(limits.MessageLimit),
		func(v float64) string { return format.Count(uint32(v)) }, innerWidth))

	title := styles.CardTitleStyle.Render(fmt.Sprintf("Session (%s plan)", m.state.PlanType()))
	return styles.CardStyle.Width(m.cardWidth()).Render(title + "\n" + strings.Join(rows, "\n"))
}

func (m *Model) renderDailyCard() string {
	daily := m.state.Sync().Snapshot.DailyUsage

	chartWidth := m.cardWidth() - 16
	chart := components.RenderDailyCostChart(tail(daily, 14), chartWidth, 6)

	content := styles.CardTitleStyle.Render("Daily") + "\n" + chart
	return styles.CardStyle.Width(m.cardWidth()).Render(content)
}

func (m *Model) renderModelCard() string {
	dist := m.state.Sync().Snapshot.OverallStats.ModelDistribution

	bars := components.RenderModelBars(dist, m.cardWidth()-8)
	content := styles.CardTitleStyle.Render("Models") + "\n" + bars
	return styles.CardStyle.Width(m.cardWidth()).Render(content)
}

func (m *Model) cardWidth() int {
	if m.width < 40 {
		return 40
	}
	return m.width - 2
}

func tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
