package workload

import (
	"context"

	"github.com/kompox/modelops/domain/model"
)

// ListInput selects the project.
type ListInput struct {
	ProjectID string `json:"projectID"`
}

// ListOutput wraps listed workloads.
type ListOutput struct {
	Workloads []*model.Workload `json:"workloads"`
}

// List returns the workloads of a project.
func (u *UseCase) List(ctx context.Context, in *ListInput) (*ListOutput, error) {
	if in == nil {
		in = &ListInput{}
	}
	items, err := u.Repos.Workload.List(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Workloads: items}, nil
}
