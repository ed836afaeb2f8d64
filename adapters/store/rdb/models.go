package rdb

import "time"

// TargetRecord is the RDB persistence model for domain ClusterTarget.
// Table name: targets
type TargetRecord struct {
	ID        string    `gorm:"primaryKey;type:text;not null"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:idx_targets_project_name"`
	ProjectID string    `gorm:"type:text;not null;uniqueIndex:idx_targets_project_name"`
	Driver    string    `gorm:"type:text;not null"`
	Settings  string    `gorm:"type:text"` // JSON encoded map[string]string
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (TargetRecord) TableName() string { return "targets" }

// WorkloadRecord persistence model
type WorkloadRecord struct {
	ID          string    `gorm:"primaryKey;type:text;not null"`
	ProjectID   string    `gorm:"type:text;not null;uniqueIndex:idx_workloads_project_name"`
	Name        string    `gorm:"type:text;not null;uniqueIndex:idx_workloads_project_name"`
	Description string    `gorm:"type:text"`
	LiveAt      time.Time `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (WorkloadRecord) TableName() string { return "workloads" }

// InstanceRecord persistence model
type InstanceRecord struct {
	ID         string    `gorm:"primaryKey;type:text;not null"`
	WorkloadID string    `gorm:"type:text;not null;index"` // references Workload
	Level      string    `gorm:"type:text;not null"`
	Version    string    `gorm:"type:text"`
	ModelID    string    `gorm:"type:text;index"` // references ModelArtifact
	Image      string    `gorm:"type:text"`
	Host       string    `gorm:"type:text"`
	Port       int       `gorm:"not null"`
	LiveAt     time.Time `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (InstanceRecord) TableName() string { return "instances" }

// ArtifactRecord persistence model
type ArtifactRecord struct {
	ID          string    `gorm:"primaryKey;type:text;not null"`
	WorkloadID  string    `gorm:"type:text;not null;uniqueIndex:idx_artifacts_workload_path"` // references Workload
	Path        string    `gorm:"type:text;not null;uniqueIndex:idx_artifacts_workload_path"`
	Version     string    `gorm:"type:text"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (ArtifactRecord) TableName() string { return "artifacts" }
