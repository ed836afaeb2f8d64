package target

import (
	"context"

	"github.com/kompox/modelops/domain/model"
)

// DeleteInput identifies the target to deregister.
type DeleteInput struct {
	TargetID string `json:"targetID"`
}

// DeleteOutput is empty.
type DeleteOutput struct{}

// Delete deregisters a target. Cluster objects are left in place.
func (u *UseCase) Delete(ctx context.Context, in *DeleteInput) (*DeleteOutput, error) {
	if in == nil || in.TargetID == "" {
		return nil, model.ErrTargetNotFound
	}
	if err := u.Repos.Target.Delete(ctx, in.TargetID); err != nil {
		return nil, err
	}
	return &DeleteOutput{}, nil
}
