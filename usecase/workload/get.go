package workload

import (
	"context"

	"github.com/kompox/modelops/domain/model"
)

// GetInput identifies a workload by ID, or by project and name.
type GetInput struct {
	WorkloadID string `json:"workloadID,omitempty"`
	ProjectID  string `json:"projectID,omitempty"`
	Name       string `json:"name,omitempty"`
}

// GetOutput wraps the workload.
type GetOutput struct {
	Workload *model.Workload `json:"workload"`
}

// Get returns a workload.
func (u *UseCase) Get(ctx context.Context, in *GetInput) (*GetOutput, error) {
	if in == nil {
		return nil, model.ErrWorkloadNotFound
	}
	var (
		w   *model.Workload
		err error
	)
	switch {
	case in.WorkloadID != "":
		w, err = u.Repos.Workload.Get(ctx, in.WorkloadID)
	case in.Name != "":
		w, err = u.Repos.Workload.GetByName(ctx, in.ProjectID, in.Name)
	default:
		return nil, model.ErrWorkloadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &GetOutput{Workload: w}, nil
}
