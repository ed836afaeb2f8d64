package model

import "time"

// DescriptionAutoDiscovered marks artifacts created by reconciliation.
const DescriptionAutoDiscovered = "auto-discovered"

// ModelArtifact is a versioned model file reference scoped to a Workload.
// The pair (WorkloadID, Path) is unique.
type ModelArtifact struct {
	ID          string
	WorkloadID  string
	Path        string
	Version     string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
