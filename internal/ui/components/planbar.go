package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dreynolds/ccmon-tui/internal/logger"
	"github.com/dreynolds/ccmon-tui/internal/ui/styles"
)

// RenderGradientBar renders a filled bar whose color shifts from green to
// red as it fills.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * percent / 100)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var chars []string
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#51cf66", "#ff6b6b", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			chars = append(chars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			chars = append(chars, style.Render("░"))
		}
	}
	return strings.Join(chars, "")
}

// PlanUsageBar renders one labeled limit bar: used amount against the plan
// allowance, with the percentage colored by headroom.
func PlanUsageBar(label string, used, limit float64, format func(float64) string, width int) string {
	percent := 0.0
	if limit > 0 {
		percent = used / limit * 100
	}
	if percent > 100 {
		percent = 100
	}

	labelWidth := 10
	percentWidth := 6
	barWidth := width - labelWidth - percentWidth - 24
	if barWidth < 10 {
		barWidth = 10
	}

	labelStr := styles.ProgressLabelStyle.Width(labelWidth).Render(label)
	bar := RenderGradientBar(percent, barWidth)
	percentStr := styles.GetUsageStyle(percent).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", percent))
	detail := styles.HelpStyle.Render(fmt.Sprintf(" %s / %s", format(used), format(limit)))

	return fmt.Sprintf("%s [%s] %s%s", labelStr, bar, percentStr, detail)
}

// SessionTimeBar renders the 5-hour session window countdown. The bar fills
// as the window elapses.
func SessionTimeBar(minutesToReset uint32, width int) string {
	const windowMinutes = 300

	elapsed := windowMinutes - int(minutesToReset)
	if elapsed < 0 {
		elapsed = 0
	}
	percent := float64(elapsed) / windowMinutes * 100

	labelWidth := 10
	barWidth := width - labelWidth - 16
	if barWidth < 10 {
		barWidth = 10
	}

	labelStr := styles.ProgressLabelStyle.Width(labelWidth).Render("Session")
	bar := RenderGradientBar(percent, barWidth)
	remaining := fmt.Sprintf("%dh %02dm left", minutesToReset/60, minutesToReset%60)

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, styles.HelpStyle.Render(remaining))
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
