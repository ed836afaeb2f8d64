package workload

import (
	"context"
	"time"

	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/naming"
)

// CreateInput registers a workload.
type CreateInput struct {
	ProjectID   string `json:"projectID"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateOutput wraps the created workload.
type CreateOutput struct {
	Workload *model.Workload `json:"workload"`
}

// Create stores a workload; names are unique per project.
func (u *UseCase) Create(ctx context.Context, in *CreateInput) (*CreateOutput, error) {
	if in == nil || in.ProjectID == "" {
		return nil, model.Invalid("project", "is required")
	}
	if err := naming.ValidateWorkloadName(in.Name); err != nil {
		return nil, model.Invalid("name", "%v", err)
	}
	now := time.Now().UTC()
	w := &model.Workload{
		ProjectID:   in.ProjectID,
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.Repos.Workload.Create(ctx, w); err != nil {
		return nil, err
	}
	return &CreateOutput{Workload: w}, nil
}
