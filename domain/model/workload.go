package model

import "time"

// Workload is a logical deployable application scoped to a project.
// The pair (ProjectID, Name) is unique.
type Workload struct {
	ID          string
	ProjectID   string
	Name        string
	Description string
	// LiveAt is refreshed whenever reconciliation observes one of the
	// workload's cluster objects.
	LiveAt    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
