package deployment

import (
	"context"
	"fmt"
	"time"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/domain"
	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/metrics"
	"github.com/kompox/modelops/usecase/routing"
)

// Repos holds repositories needed for deployment use cases.
type Repos struct {
	Target   domain.TargetRepository
	Workload domain.WorkloadRepository
	Instance domain.InstanceRepository
	Artifact domain.ArtifactRepository
}

// UseCase applies, updates and removes service instances on the cluster
// targets of a project.
type UseCase struct {
	Repos     *Repos
	Connector kube.Connector
	Manifest  kube.ManifestOptions
	// Router drops the route of removed instances.
	Router  *routing.UseCase
	Metrics *metrics.Metrics
	// Now overrides the clock for liveness timestamps.
	Now func() time.Time
}

func (u *UseCase) now() time.Time {
	if u.Now != nil {
		return u.Now().UTC()
	}
	return time.Now().UTC()
}

func (u *UseCase) targets(ctx context.Context, projectID string) ([]*model.ClusterTarget, error) {
	targets, err := u.Repos.Target.List(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list cluster targets: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("project %q: %w", projectID, model.ErrTargetNotFound)
	}
	return targets, nil
}

func (u *UseCase) connect(ctx context.Context, t *model.ClusterTarget) (kube.ClusterClient, error) {
	client, err := u.Connector.Connect(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("connect target %s: %w", t.Name, err)
	}
	return client, nil
}
