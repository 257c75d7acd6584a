package components

import (
	"strconv"
	"strings"
	"testing"

	"github.com/dreynolds/ccmon-tui/internal/models"
)

func TestNewSpinner(t *testing.T) {
	s := NewSpinner("Loading")
	if s.label != "Loading" {
		t.Error("Spinner label mismatch")
	}

	if s.View() == "" {
		t.Error("View returned empty")
	}
	if !strings.Contains(s.ViewWithLabel(), "Loading") {
		t.Error("ViewWithLabel missing label")
	}
	if s.Init() == nil {
		t.Error("Init should return command")
	}

	s.SetLabel("Refreshing")
	if !strings.Contains(s.ViewWithLabel(), "Refreshing") {
		t.Error("SetLabel not reflected")
	}
}

func TestRenderDailyCostChart(t *testing.T) {
	daily := []models.DailyUsage{
		{Date: "2026-08-23", CostUSD: 1.5},
		{Date: "2026-08-24", CostUSD: 3.0},
		{Date: "2026-08-25", CostUSD: 2.2},
	}

	chart := RenderDailyCostChart(daily, 40, 6)
	if chart == "" {
		t.Fatal("chart is empty")
	}
	if !strings.Contains(chart, "Daily cost") {
		t.Errorf("caption missing from chart:\n%s", chart)
	}

	empty := RenderDailyCostChart(nil, 40, 6)
	if !strings.Contains(empty, "No daily usage") {
		t.Errorf("empty series should render a placeholder, got %q", empty)
	}
}

func TestRenderModelBars(t *testing.T) {
	dist := []models.ModelStats{
		{Model: "claude-opus-4-6", TotalTokens: 8000, Percentage: 80.0},
		{Model: "claude-3-5-haiku", TotalTokens: 2000, Percentage: 20.0},
	}

	bars := RenderModelBars(dist, 60)
	if !strings.Contains(bars, "claude-opus-4-6") {
		t.Errorf("model label missing:\n%s", bars)
	}
	if !strings.Contains(bars, "80.0%") || !strings.Contains(bars, "20.0%") {
		t.Errorf("percentages missing:\n%s", bars)
	}
	if len(strings.Split(bars, "\n")) != 2 {
		t.Errorf("want one line per model:\n%s", bars)
	}
}

func TestRenderSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		width  int
		want   int // rune count
	}{
		{"empty", nil, 10, 0},
		{"fits", []float64{1, 2, 3}, 10, 3},
		{"sampled", []float64{1, 2, 3, 4, 5, 6, 7, 8}, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderSparkline(tt.values, tt.width)
			if n := len([]rune(got)); n != tt.want {
				t.Errorf("rune count = %d, want %d (%q)", n, tt.want, got)
			}
		})
	}
}

func TestRenderSparkline_Levels(t *testing.T) {
	out := []rune(RenderSparkline([]float64{0, 100}, 2))
	if out[0] != '▁' {
		t.Errorf("zero value should render the lowest block, got %q", out[0])
	}
	if out[1] != '█' {
		t.Errorf("max value should render the highest block, got %q", out[1])
	}
}

func TestPlanUsageBar(t *testing.T) {
	dollars := func(v float64) string { return "$" + strconv.Itoa(int(v)) }

	bar := PlanUsageBar("Cost", 9.0, 18.0, dollars, 80)
	if !strings.Contains(bar, "Cost") {
		t.Errorf("label missing: %q", bar)
	}
	if !strings.Contains(bar, "50%") {
		t.Errorf("percentage missing: %q", bar)
	}
	if !strings.Contains(bar, "$9 / $18") {
		t.Errorf("detail missing: %q", bar)
	}
}

func TestSessionTimeBar(t *testing.T) {
	bar := SessionTimeBar(90, 70)
	if !strings.Contains(bar, "Session") {
		t.Errorf("label missing: %q", bar)
	}
	if !strings.Contains(bar, "1h 30m left") {
		t.Errorf("countdown missing: %q", bar)
	}
}

func TestRenderGradientBar_Bounds(t *testing.T) {
	if RenderGradientBar(50, 0) != "" {
		t.Error("zero width should render nothing")
	}
	full := RenderGradientBar(150, 10)
	if strings.Contains(full, "░") {
		t.Error("over-100 percent should clamp to a full bar")
	}
	empty := RenderGradientBar(-5, 10)
	if strings.Contains(empty, "█") {
		t.Error("negative percent should clamp to an empty bar")
	}
}

func TestHexToRGB(t *testing.T) {
	rgb := hexToRGB("#ff0080")
	if rgb != [3]int{255, 0, 128} {
		t.Errorf("hexToRGB = %v", rgb)
	}
	if hexToRGB("nope") != [3]int{0, 0, 0} {
		t.Error("bad hex should fall back to black")
	}
}
