package target

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/kompox/modelops/domain/model"
)

// UpsertOutput wraps the stored target.
type UpsertOutput struct {
	Target  *model.ClusterTarget `json:"target"`
	Created bool                 `json:"created"`
	Updated bool                 `json:"updated"`
}

// Upsert registers a target by name or rotates the settings of an existing
// one. Changing the driver of a registered target is rejected.
func (u *UseCase) Upsert(ctx context.Context, in *CreateInput) (*UpsertOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: input is required", model.ErrTargetInvalid)
	}
	existing, err := u.FindByName(ctx, in.ProjectID, in.Name)
	if errors.Is(err, model.ErrTargetNotFound) {
		out, err := u.Create(ctx, in)
		if err != nil {
			return nil, err
		}
		return &UpsertOutput{Target: out.Target, Created: true}, nil
	}
	if err != nil {
		return nil, err
	}
	if existing.Driver != in.Driver {
		return nil, fmt.Errorf("%w: target %s uses driver %q, not %q", model.ErrTargetInvalid, existing.Name, existing.Driver, in.Driver)
	}
	if maps.Equal(existing.Settings, in.Settings) {
		return &UpsertOutput{Target: existing}, nil
	}
	out, err := u.RotateCredentials(ctx, &RotateCredentialsInput{TargetID: existing.ID, Settings: in.Settings})
	if err != nil {
		return nil, err
	}
	return &UpsertOutput{Target: out.Target, Updated: true}, nil
}
