package workload

import (
	"context"

	"github.com/kompox/modelops/domain/model"
)

// DeleteInput identifies the workload to delete.
type DeleteInput struct {
	WorkloadID string `json:"workloadID"`
}

// DeleteOutput is empty.
type DeleteOutput struct{}

// Delete removes a workload and its model artifacts. It fails with
// model.ErrWorkloadInUse while service instances remain.
func (u *UseCase) Delete(ctx context.Context, in *DeleteInput) (*DeleteOutput, error) {
	if in == nil || in.WorkloadID == "" {
		return nil, model.ErrWorkloadNotFound
	}
	if err := u.Repos.Workload.Delete(ctx, in.WorkloadID); err != nil {
		return nil, err
	}
	return &DeleteOutput{}, nil
}
