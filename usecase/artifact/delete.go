package artifact

import (
	"context"

	"github.com/kompox/modelops/domain/model"
)

// DeleteInput identifies the artifact to delete.
type DeleteInput struct {
	ArtifactID string `json:"artifactID"`
}

// DeleteOutput is empty.
type DeleteOutput struct{}

// Delete removes an artifact. It fails with model.ErrArtifactInUse, leaving
// every row intact, while a service instance serves it.
func (u *UseCase) Delete(ctx context.Context, in *DeleteInput) (*DeleteOutput, error) {
	if in == nil || in.ArtifactID == "" {
		return nil, model.ErrArtifactNotFound
	}
	if err := u.Repos.Artifact.Delete(ctx, in.ArtifactID); err != nil {
		return nil, err
	}
	return &DeleteOutput{}, nil
}
