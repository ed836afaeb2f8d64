package target

import (
	"context"

	"github.com/kompox/modelops/domain/model"
)

// ListInput selects the project.
type ListInput struct {
	ProjectID string `json:"projectID"`
}

// ListOutput wraps listed targets.
type ListOutput struct {
	Targets []*model.ClusterTarget `json:"targets"`
}

// List returns the targets of a project in registration order.
func (u *UseCase) List(ctx context.Context, in *ListInput) (*ListOutput, error) {
	if in == nil {
		in = &ListInput{}
	}
	items, err := u.Repos.Target.List(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Targets: items}, nil
}

// FindByName returns the target of a project with the given name.
func (u *UseCase) FindByName(ctx context.Context, projectID, name string) (*model.ClusterTarget, error) {
	items, err := u.Repos.Target.List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, t := range items {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, model.ErrTargetNotFound
}
