package models

import "time"

// ChangeKind categorizes one detected difference between two snapshots.
type ChangeKind string

const (
	ChangeNew          ChangeKind = "new"
	ChangeTime         ChangeKind = "time_change"
	ChangeDay          ChangeKind = "day_change"
	ChangeEpisode      ChangeKind = "episode_update"
	ChangeCancellation ChangeKind = "cancellation"
)

// ChangeRecord is one detected difference between today's schedule and a
// prior snapshot. Records are produced transiently per comparison; storing
// them is the caller's business.
type ChangeRecord struct {
	Kind          ChangeKind `json:"kind"`
	Title         string     `json:"title"`
	Details       string     `json:"details"`
	PreviousValue string     `json:"previousValue,omitempty"`
	NewValue      string     `json:"newValue,omitempty"`
	BatchID       string     `json:"batchId"`    // shared by all records of one comparison
	DetectedAt    time.Time  `json:"detectedAt"` // captured once per comparison
}
