package sync

import (
	"reflect"
	"testing"

	"github.com/dreynolds/ccmon-tui/internal/models"
)

func baseSnapshot() models.UsageSnapshot {
	return models.UsageSnapshot{
		Projects: []models.ProjectStats{
			{ProjectPath: "D:\\code\\alpha", DisplayName: "alpha", TotalCostUSD: 4.0, LastActivity: "2026-08-25T10:00:00Z"},
			{ProjectPath: "D:\\code\\beta", DisplayName: "beta", TotalCostUSD: 6.0, LastActivity: "2026-08-25T09:00:00Z"},
		},
		DailyUsage: []models.DailyUsage{
			{Date: "2026-08-24", CostUSD: 3.0},
			{Date: "2026-08-25", CostUSD: 7.0},
		},
		OverallStats: models.OverallStats{TotalCostUSD: 10.0, ProjectCount: 2},
	}
}

func TestMerge_NoChangeIsIdentity(t *testing.T) {
	current := baseSnapshot()

	merged := Merge(current, models.Heartbeat())
	if !reflect.DeepEqual(merged, current) {
		t.Errorf("no-change merge altered the snapshot:\n%+v\nvs\n%+v", merged, current)
	}
}

func TestMerge_ContradictoryDeltaIsNoOp(t *testing.T) {
	current := baseSnapshot()

	// HasChanges with nothing populated contradicts itself; treated as a
	// no-op rather than an error.
	merged := Merge(current, models.Delta{HasChanges: true})
	if !reflect.DeepEqual(merged, current) {
		t.Errorf("contradictory delta altered the snapshot")
	}
}

func TestMerge_ProjectOverwriteByPath(t *testing.T) {
	current := baseSnapshot()

	updated := models.ProjectStats{
		ProjectPath: "D:\\code\\alpha", DisplayName: "alpha",
		TotalCostUSD: 9.0, LastActivity: "2026-08-25T11:00:00Z",
	}
	merged := Merge(current, models.Delta{
		HasChanges:      true,
		UpdatedProjects: []models.ProjectStats{updated},
	})

	if len(merged.Projects) != 2 {
		t.Fatalf("projects = %d, want 2", len(merged.Projects))
	}
	alpha := merged.ProjectByPath("D:\\code\\alpha")
	if alpha == nil || alpha.TotalCostUSD != 9.0 {
		t.Errorf("alpha not replaced wholesale: %+v", alpha)
	}
	beta := merged.ProjectByPath("D:\\code\\beta")
	if beta == nil || beta.TotalCostUSD != 6.0 {
		t.Errorf("beta should carry over unchanged: %+v", beta)
	}
}

func TestMerge_NewProjectAdded(t *testing.T) {
	current := baseSnapshot()

	newcomer := models.ProjectStats{
		ProjectPath: "D:\\code\\gamma", DisplayName: "gamma",
		TotalCostUSD: 1.0, LastActivity: "2026-08-25T12:00:00Z",
	}
	merged := Merge(current, models.Delta{
		HasChanges:      true,
		UpdatedProjects: []models.ProjectStats{newcomer},
	})

	if len(merged.Projects) != 3 {
		t.Fatalf("projects = %d, want 3", len(merged.Projects))
	}
	if merged.ProjectByPath("D:\\code\\gamma") == nil {
		t.Errorf("new project missing after merge")
	}
	// Most recent activity first.
	if merged.Projects[0].ProjectPath != "D:\\code\\gamma" {
		t.Errorf("projects not ordered by last activity: %q first", merged.Projects[0].ProjectPath)
	}
}

func TestMerge_NeverRemovesProjects(t *testing.T) {
	current := baseSnapshot()

	deltas := []models.Delta{
		{HasChanges: true, UpdatedProjects: []models.ProjectStats{{ProjectPath: "D:\\code\\alpha"}}},
		{HasChanges: true, OverallStats: &models.OverallStats{TotalCostUSD: 1}},
		{HasChanges: true, DailyUsage: []models.DailyUsage{{Date: "2026-08-25"}}},
		{},
	}
	for _, delta := range deltas {
		merged := Merge(current, delta)
		if len(merged.Projects) < len(current.Projects) {
			t.Errorf("merge removed projects: %d -> %d (delta %+v)",
				len(current.Projects), len(merged.Projects), delta)
		}
		for _, p := range current.Projects {
			if merged.ProjectByPath(p.ProjectPath) == nil {
				t.Errorf("project %q silently deleted by delta %+v", p.ProjectPath, delta)
			}
		}
	}
}

func TestMerge_OverallStatsReplacedWholesale(t *testing.T) {
	current := baseSnapshot()

	merged := Merge(current, models.Delta{
		HasChanges:   true,
		OverallStats: &models.OverallStats{TotalCostUSD: 12.5, ProjectCount: 2},
	})

	if merged.OverallStats.TotalCostUSD != 12.5 {
		t.Errorf("overall cost = %v, want 12.5", merged.OverallStats.TotalCostUSD)
	}
	// Daily usage untouched when absent from the delta.
	if !reflect.DeepEqual(merged.DailyUsage, current.DailyUsage) {
		t.Errorf("daily usage should be unchanged")
	}
}

func TestMerge_DailyUsageReplacedWholesale(t *testing.T) {
	current := baseSnapshot()

	replacement := []models.DailyUsage{{Date: "2026-08-25", CostUSD: 99.0}}
	merged := Merge(current, models.Delta{
		HasChanges: true,
		DailyUsage: replacement,
	})

	if !reflect.DeepEqual(merged.DailyUsage, replacement) {
		t.Errorf("daily usage = %+v, want wholesale replacement", merged.DailyUsage)
	}
	if merged.OverallStats.TotalCostUSD != 10.0 {
		t.Errorf("overall stats should be unchanged")
	}
}

func TestMerge_ReturnsNewValue(t *testing.T) {
	current := baseSnapshot()

	merged := Merge(current, models.Delta{
		HasChanges:      true,
		UpdatedProjects: []models.ProjectStats{{ProjectPath: "D:\\code\\alpha", TotalCostUSD: 42}},
	})

	// Mutating the result must not touch the input.
	merged.Projects[0].TotalCostUSD = -1
	merged.DailyUsage[0].CostUSD = -1
	if current.Projects[0].TotalCostUSD == -1 || current.DailyUsage[0].CostUSD == -1 {
		t.Errorf("merge aliased the input snapshot")
	}
}

func TestMerge_DuplicateProjectLastWins(t *testing.T) {
	current := baseSnapshot()

	merged := Merge(current, models.Delta{
		HasChanges: true,
		UpdatedProjects: []models.ProjectStats{
			{ProjectPath: "D:\\code\\alpha", TotalCostUSD: 1},
			{ProjectPath: "D:\\code\\alpha", TotalCostUSD: 2},
		},
	})

	alpha := merged.ProjectByPath("D:\\code\\alpha")
	if alpha == nil || alpha.TotalCostUSD != 2 {
		t.Errorf("duplicate identifiers should overwrite in message order: %+v", alpha)
	}
	if len(merged.Projects) != 2 {
		t.Errorf("duplicate must not add a second record: %d projects", len(merged.Projects))
	}
}
