package model

import "time"

// Service levels commonly used as environment tiers.
const (
	LevelDevelopment = "development"
	LevelStaging     = "staging"
	LevelProduction  = "production"
)

// ServiceInstance is one deployed replica set of a Workload at a service level.
// ID is used verbatim in cluster object names.
type ServiceInstance struct {
	ID         string
	WorkloadID string
	Level      string
	Version    string // protocol version
	ModelID    string // references ModelArtifact; empty when unassigned
	Image      string
	Host       string // in-cluster network endpoint host
	Port       int
	LiveAt     time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
