package domain

import (
	"context"
	"time"

	"github.com/kompox/modelops/domain/model"
)

// TargetRepository stores and retrieves ClusterTarget aggregates.
type TargetRepository interface {
	Create(ctx context.Context, t *model.ClusterTarget) error
	Get(ctx context.Context, id string) (*model.ClusterTarget, error)
	List(ctx context.Context, projectID string) ([]*model.ClusterTarget, error)
	Update(ctx context.Context, t *model.ClusterTarget) error
	Delete(ctx context.Context, id string) error
}

// WorkloadRepository stores and retrieves Workload aggregates.
// Create fails with model.ErrWorkloadExists when (project, name) is taken.
type WorkloadRepository interface {
	Create(ctx context.Context, w *model.Workload) error
	Get(ctx context.Context, id string) (*model.Workload, error)
	GetByName(ctx context.Context, projectID, name string) (*model.Workload, error)
	List(ctx context.Context, projectID string) ([]*model.Workload, error)
	Touch(ctx context.Context, id string, at time.Time) error
	// Delete fails with model.ErrWorkloadInUse while instances reference the workload.
	Delete(ctx context.Context, id string) error
	// DeleteStale removes workloads of projectID whose LiveAt is before the
	// given time together with their instances, and returns the removed IDs.
	DeleteStale(ctx context.Context, projectID string, before time.Time) ([]string, error)
}

// InstanceRepository stores and retrieves ServiceInstance aggregates.
type InstanceRepository interface {
	Create(ctx context.Context, s *model.ServiceInstance) error
	Get(ctx context.Context, id string) (*model.ServiceInstance, error)
	// List returns instances of workloadID; an empty level matches every level.
	List(ctx context.Context, workloadID, level string) ([]*model.ServiceInstance, error)
	Update(ctx context.Context, s *model.ServiceInstance) error
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	// DeleteStale removes instances of workloadID whose LiveAt is before the
	// given time and returns the removed IDs.
	DeleteStale(ctx context.Context, workloadID string, before time.Time) ([]string, error)
}

// ArtifactRepository stores and retrieves ModelArtifact aggregates.
// Create fails with model.ErrArtifactExists when (workload, path) is taken.
type ArtifactRepository interface {
	Create(ctx context.Context, a *model.ModelArtifact) error
	Get(ctx context.Context, id string) (*model.ModelArtifact, error)
	GetByPath(ctx context.Context, workloadID, path string) (*model.ModelArtifact, error)
	List(ctx context.Context, workloadID string) ([]*model.ModelArtifact, error)
	// Delete fails with model.ErrArtifactInUse while an instance references it.
	Delete(ctx context.Context, id string) error
}

// Repositories groups repository interfaces.
type Repositories struct {
	Target   TargetRepository
	Workload WorkloadRepository
	Instance InstanceRepository
	Artifact ArtifactRepository
}
