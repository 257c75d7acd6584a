// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/dreynolds/ccmon-tui/internal/models"
	"github.com/dreynolds/ccmon-tui/internal/ui/styles"
)

// RenderDailyCostChart plots the daily cost series as an ASCII line chart,
// oldest day on the left.
func RenderDailyCostChart(daily []models.DailyUsage, width, height int) string {
	if len(daily) == 0 {
		return styles.HelpStyle.Render("No daily usage yet")
	}

	data := make([]float64, len(daily))
	for i, d := range daily {
		data[i] = d.CostUSD
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	caption := fmt.Sprintf("Daily cost (USD), last %d days", len(daily))
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// RenderModelBars draws one horizontal bar per model, scaled to the largest
// token count, colored by model family.
func RenderModelBars(dist []models.ModelStats, width int) string {
	if len(dist) == 0 {
		return styles.HelpStyle.Render("No model data")
	}

	maxTokens := uint64(0)
	maxLabelLen := 0
	for _, m := range dist {
		if m.TotalTokens > maxTokens {
			maxTokens = m.TotalTokens
		}
		if len(m.Model) > maxLabelLen {
			maxLabelLen = len(m.Model)
		}
	}
	if maxTokens == 0 {
		maxTokens = 1
	}

	barWidth := width - maxLabelLen - 12
	if barWidth < 10 {
		barWidth = 10
	}

	var lines []string
	for _, m := range dist {
		barLen := int(float64(m.TotalTokens) / float64(maxTokens) * float64(barWidth))
		if barLen < 1 && m.TotalTokens > 0 {
			barLen = 1
		}

		style := styles.GetModelStyle(m.Model)
		label := fmt.Sprintf("%*s", maxLabelLen, m.Model)
		bar := style.Render(strings.Repeat("█", barLen))
		lines = append(lines, fmt.Sprintf("%s │%s %5.1f%%", label, bar, m.Percentage))
	}
	return strings.Join(lines, "\n")
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline compresses a value series into a single row of block
// characters, sampled to fit the width.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width < 1 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	step := float64(len(values)) / float64(width)
	if step < 1 {
		step = 1
	}

	var out strings.Builder
	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		v := values[int(float64(i)*step)]
		level := int(v / maxVal * float64(len(sparkChars)-1))
		if level >= len(sparkChars) {
			level = len(sparkChars) - 1
		}
		if level < 0 {
			level = 0
		}
		out.WriteRune(sparkChars[level])
	}
	return out.String()
}

// DailySparkline renders the daily cost series as a sparkline.
func DailySparkline(daily []models.DailyUsage, width int) string {
	data := make([]float64, len(daily))
	for i, d := range daily {
		data[i] = d.CostUSD
	}
	return RenderSparkline(data, width)
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		box := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", box, item.Label))
	}
	return strings.Join(parts, "  ")
}
