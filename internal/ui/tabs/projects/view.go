package projects

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/dreynolds/ccmon-tui/internal/format"
	"github.com/dreynolds/ccmon-tui/internal/models"
	"github.com/dreynolds/ccmon-tui/internal/ui/components"
	"github.com/dreynolds/ccmon-tui/internal/ui/styles"
)

// View renders the projects tab content.
func (m *Model) View() string {
	view := m.state.Sync()
	if !view.HasData {
		return components.RenderSpinnerCentered(m.spinner, m.width, max(1, m.height))
	}

	projects := view.Snapshot.Projects
	if len(projects) == 0 {
		return styles.HelpStyle.Render("\n  No projects found in the Claude data directory.")
	}
	if m.selectedIndex >= len(projects) {
		m.selectedIndex = len(projects) - 1
	}

	table := m.renderTable(projects)
	detail := m.renderDetail(projects[m.selectedIndex])
	return lipgloss.JoinVertical(lipgloss.Left, table, detail)
}

func (m *Model) renderTable(projects []models.ProjectStats) string {
	header := fmt.Sprintf("  %-26s %10s %10s %8s %12s", "Project", "Cost", "Tokens", "Msgs", "Last active")

	var rows []string
	rows = append(rows, styles.TableHeaderStyle.Render(header))

	for i, p := range projects {
		row := fmt.Sprintf("  %-26s %10s %10s %8s %12s",
			truncateName(p.DisplayName, 26),
			format.Cost(p.TotalCostUSD),
			format.Tokens(p.TotalTokens()),
			format.Count(p.MessageCount),
			lastActive(p.LastActivity))

		if i == m.selectedIndex {
			row = styles.TableSelectedStyle.Render(row)
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderDetail(p models.ProjectStats) string {
	rows := []string{
		fmt.Sprintf("%-14s %s", "Path", p.ProjectPath),
		fmt.Sprintf("%-14s %s in / %s out", "Tokens",
			format.Tokens(p.TotalInputTokens), format.Tokens(p.TotalOutputTokens)),
		fmt.Sprintf("%-14s %s created / %s read", "Cache",
			format.Tokens(p.CacheCreationTokens), format.Tokens(p.CacheReadTokens)),
		fmt.Sprintf("%-14s %s messages in %s sessions", "Activity",
			format.Count(p.MessageCount), format.Count(p.SessionCount)),
		fmt.Sprintf("%-14s %s to %s", "Active", shortActivity(p.FirstActivity), shortActivity(p.LastActivity)),
	}

	title := styles.CardTitleStyle.Render(p.DisplayName)
	content := title + "\n" + strings.Join(rows, "\n")

	width := m.width - 2
	if width < 40 {
		width = 40
	}
	return styles.CardStyle.Width(width).Render(content)
}

// truncateName shortens a display name to the column width without splitting
// multi-byte runes.
func truncateName(name string, width int) string {
	return ansi.Truncate(name, width, "…")
}

// lastActive renders an RFC3339 activity timestamp relative to now.
func lastActive(activity string) string {
	t, err := time.Parse(time.RFC3339, activity)
	if err != nil {
		return "-"
	}
	return format.RelativeTime(t, time.Now())
}

// shortActivity renders just the date part of an activity timestamp.
func shortActivity(activity string) string {
	t, err := time.Parse(time.RFC3339, activity)
	if err != nil {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}
