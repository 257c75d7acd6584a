package sync

import (
	"sort"

	"github.com/dreynolds/ccmon-tui/internal/models"
)

// Merge reconciles a delta into the current snapshot and returns a new
// value; current is never mutated.
//
// Rules:
//   - Must not be called for FullRefresh deltas; those require a refetch.
//   - Projects in the delta overwrite by path; unmentioned projects carry
//     over unchanged. A delta never removes a project.
//   - OverallStats and DailyUsage replace wholesale when present.
//   - A no-change delta, or a contradictory one (HasChanges with an empty
//     payload), yields an equal snapshot.
func Merge(current models.UsageSnapshot, delta models.Delta) models.UsageSnapshot {
	out := current.Clone()

	if !delta.HasChanges || delta.IsEmpty() {
		return out
	}

	if len(delta.UpdatedProjects) > 0 {
		index := make(map[string]int, len(out.Projects))
		for i, p := range out.Projects {
			index[p.ProjectPath] = i
		}
		for _, updated := range delta.UpdatedProjects {
			if i, ok := index[updated.ProjectPath]; ok {
				out.Projects[i] = updated
			} else {
				index[updated.ProjectPath] = len(out.Projects)
				out.Projects = append(out.Projects, updated)
			}
		}
		// Storage order is not meaningful; keep the display convention of
		// most recent activity first so consumers need not re-sort.
		sort.SliceStable(out.Projects, func(i, j int) bool {
			return out.Projects[i].LastActivity > out.Projects[j].LastActivity
		})
	}

	if delta.OverallStats != nil {
		out.OverallStats = cloneOverall(*delta.OverallStats)
	}

	if delta.DailyUsage != nil {
		out.DailyUsage = append([]models.DailyUsage(nil), delta.DailyUsage...)
	}

	return out
}

func cloneOverall(o models.OverallStats) models.OverallStats {
	if len(o.ModelDistribution) > 0 {
		dist := make([]models.ModelStats, len(o.ModelDistribution))
		copy(dist, o.ModelDistribution)
		o.ModelDistribution = dist
	}
	if o.BurnRate != nil {
		br := *o.BurnRate
		o.BurnRate = &br
	}
	if o.DataSource != nil {
		ds := *o.DataSource
		o.DataSource = &ds
	}
	return o
}
