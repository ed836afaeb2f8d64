package model

import "time"

// ClusterTarget represents one reachable Kubernetes cluster owned by a project.
// Settings hold driver-specific credential references and are the only
// mutable part after registration (credential rotation).
type ClusterTarget struct {
	ID        string
	Name      string
	ProjectID string
	Driver    string // credential driver, e.g. "kubeconfig", "aks"
	Settings  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}
