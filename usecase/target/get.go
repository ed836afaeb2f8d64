package target

import (
	"context"

	"github.com/kompox/modelops/domain/model"
)

// GetInput identifies a target.
type GetInput struct {
	TargetID string `json:"targetID"`
}

// GetOutput wraps the target.
type GetOutput struct {
	Target *model.ClusterTarget `json:"target"`
}

// Get returns a target by ID.
func (u *UseCase) Get(ctx context.Context, in *GetInput) (*GetOutput, error) {
	if in == nil || in.TargetID == "" {
		return nil, model.ErrTargetNotFound
	}
	t, err := u.Repos.Target.Get(ctx, in.TargetID)
	if err != nil {
		return nil, err
	}
	return &GetOutput{Target: t}, nil
}
