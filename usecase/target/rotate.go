package target

import (
	"context"
	"fmt"
	"maps"
	"time"

	targetdrv "github.com/kompox/modelops/adapters/drivers/target"
	"github.com/kompox/modelops/domain/model"
)

// RotateCredentialsInput replaces the driver settings of a target.
type RotateCredentialsInput struct {
	TargetID string            `json:"targetID"`
	Settings map[string]string `json:"settings"`
}

// RotateCredentialsOutput wraps the updated target.
type RotateCredentialsOutput struct {
	Target *model.ClusterTarget `json:"target"`
}

// RotateCredentials swaps the settings after the driver accepted them.
// Settings are the only mutable part of a registered target.
func (u *UseCase) RotateCredentials(ctx context.Context, in *RotateCredentialsInput) (*RotateCredentialsOutput, error) {
	if in == nil || in.TargetID == "" {
		return nil, model.ErrTargetNotFound
	}
	t, err := u.Repos.Target.Get(ctx, in.TargetID)
	if err != nil {
		return nil, err
	}
	next := *t
	next.Settings = maps.Clone(in.Settings)
	if _, err := targetdrv.New(&next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()
	if err := u.Repos.Target.Update(ctx, &next); err != nil {
		return nil, fmt.Errorf("update target %s: %w", t.Name, err)
	}
	return &RotateCredentialsOutput{Target: &next}, nil
}
