package models

// Delta is a partial update pushed by the collector. It is additive and
// replacing only: a delta never retracts data. Deletions require a full
// refresh.
type Delta struct {
	// HasChanges reports whether the delta carries substantive changes.
	// Heartbeat deltas have HasChanges=false and empty payloads.
	HasChanges bool `json:"hasChanges"`

	// FullRefresh tells the consumer to discard its snapshot and refetch;
	// the payload fields must not be merged when this is set.
	FullRefresh bool `json:"fullRefresh"`

	// UpdatedProjects are full replacement records for changed projects.
	UpdatedProjects []ProjectStats `json:"updatedProjects"`

	// OverallStats replaces the snapshot's overall stats when non-nil.
	OverallStats *OverallStats `json:"overallStats,omitempty"`

	// DailyUsage replaces the snapshot's daily sequence when non-nil.
	DailyUsage []DailyUsage `json:"dailyUsage,omitempty"`
}

// IsEmpty reports whether the delta carries no payload at all. A delta with
// HasChanges=true but an empty payload is contradictory and treated as a
// no-op by the merge engine.
func (d Delta) IsEmpty() bool {
	return len(d.UpdatedProjects) == 0 && d.OverallStats == nil && d.DailyUsage == nil
}

// Heartbeat returns a no-change delta, sent periodically for liveness.
func Heartbeat() Delta {
	return Delta{}
}
