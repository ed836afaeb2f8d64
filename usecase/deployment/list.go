package deployment

import (
	"context"

	"github.com/kompox/modelops/domain/model"
)

// ListInput filters service instances. An empty Level matches every level.
type ListInput struct {
	WorkloadID string `json:"workloadID"`
	Level      string `json:"level"`
}

// ListOutput wraps listed service instances.
type ListOutput struct {
	Instances []*model.ServiceInstance `json:"instances"`
}

// List returns the registered service instances of a workload.
func (u *UseCase) List(ctx context.Context, in *ListInput) (*ListOutput, error) {
	if in == nil || in.WorkloadID == "" {
		return nil, model.Invalid("workloadID", "is required")
	}
	items, err := u.Repos.Instance.List(ctx, in.WorkloadID, in.Level)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Instances: items}, nil
}
