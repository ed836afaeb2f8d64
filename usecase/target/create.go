package target

import (
	"context"
	"fmt"
	"maps"
	"time"

	targetdrv "github.com/kompox/modelops/adapters/drivers/target"
	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/naming"
)

// CreateInput registers a cluster target.
type CreateInput struct {
	ProjectID string            `json:"projectID"`
	Name      string            `json:"name"`
	Driver    string            `json:"driver"`
	Settings  map[string]string `json:"settings,omitempty"`
}

// CreateOutput wraps the registered target.
type CreateOutput struct {
	Target *model.ClusterTarget `json:"target"`
}

// Create validates the name and driver settings and stores the target.
func (u *UseCase) Create(ctx context.Context, in *CreateInput) (*CreateOutput, error) {
	if in == nil || in.ProjectID == "" {
		return nil, fmt.Errorf("%w: project is required", model.ErrTargetInvalid)
	}
	if err := naming.ValidateTargetName(in.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrTargetInvalid, err)
	}
	now := time.Now().UTC()
	t := &model.ClusterTarget{
		Name:      in.Name,
		ProjectID: in.ProjectID,
		Driver:    in.Driver,
		Settings:  maps.Clone(in.Settings),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := targetdrv.New(t); err != nil {
		return nil, err
	}
	if err := u.Repos.Target.Create(ctx, t); err != nil {
		return nil, err
	}
	return &CreateOutput{Target: t}, nil
}
