package artifact

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/kompox/modelops/domain/model"
)

// CreateInput registers a model file for a workload.
type CreateInput struct {
	WorkloadID  string `json:"workloadID"`
	Path        string `json:"path"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreateOutput wraps the created artifact.
type CreateOutput struct {
	Artifact *model.ModelArtifact `json:"artifact"`
}

// Create stores an artifact. Paths are cleaned and unique per workload.
func (u *UseCase) Create(ctx context.Context, in *CreateInput) (*CreateOutput, error) {
	if in == nil || in.WorkloadID == "" {
		return nil, model.Invalid("workloadID", "is required")
	}
	p := strings.TrimSpace(in.Path)
	if p == "" {
		return nil, model.Invalid("path", "is required")
	}
	if _, err := u.Repos.Workload.Get(ctx, in.WorkloadID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	a := &model.ModelArtifact{
		WorkloadID:  in.WorkloadID,
		Path:        path.Clean(p),
		Version:     in.Version,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.Repos.Artifact.Create(ctx, a); err != nil {
		return nil, err
	}
	return &CreateOutput{Artifact: a}, nil
}
