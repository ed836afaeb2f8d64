package artifact

import (
	"context"

	"github.com/kompox/modelops/domain/model"
)

// ListInput selects the workload.
type ListInput struct {
	WorkloadID string `json:"workloadID"`
}

// ListOutput wraps listed artifacts.
type ListOutput struct {
	Artifacts []*model.ModelArtifact `json:"artifacts"`
}

// List returns the artifacts of a workload.
func (u *UseCase) List(ctx context.Context, in *ListInput) (*ListOutput, error) {
	if in == nil || in.WorkloadID == "" {
		return nil, model.Invalid("workloadID", "is required")
	}
	items, err := u.Repos.Artifact.List(ctx, in.WorkloadID)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Artifacts: items}, nil
}
