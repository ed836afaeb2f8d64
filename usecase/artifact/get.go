package artifact

import (
	"context"

	"github.com/kompox/modelops/domain/model"
)

// GetInput identifies an artifact.
type GetInput struct {
	ArtifactID string `json:"artifactID"`
}

// GetOutput wraps the artifact.
type GetOutput struct {
	Artifact *model.ModelArtifact `json:"artifact"`
}

// Get returns an artifact by ID.
func (u *UseCase) Get(ctx context.Context, in *GetInput) (*GetOutput, error) {
	if in == nil || in.ArtifactID == "" {
		return nil, model.ErrArtifactNotFound
	}
	a, err := u.Repos.Artifact.Get(ctx, in.ArtifactID)
	if err != nil {
		return nil, err
	}
	return &GetOutput{Artifact: a}, nil
}
