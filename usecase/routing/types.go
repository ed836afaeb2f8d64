package routing

import (
	"context"
	"fmt"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/adapters/lock"
	"github.com/kompox/modelops/domain"
	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/metrics"
)

// Repos holds repositories needed for routing use cases.
type Repos struct {
	Target   domain.TargetRepository
	Workload domain.WorkloadRepository
	Instance domain.InstanceRepository
}

// UseCase reads and rewrites the traffic rule shared by the service
// instances of one workload level.
type UseCase struct {
	Repos     *Repos
	Connector kube.Connector
	// Locker serializes rule writers per (workload, level).
	Locker lock.Locker
	// Manifest supplies the namespace prefix of service levels.
	Manifest kube.ManifestOptions
	Metrics  *metrics.Metrics
}

// TargetRoutes is the rule state written to one cluster target.
type TargetRoutes struct {
	TargetID string         `json:"targetID"`
	Routes   model.RouteSet `json:"routes"`
	// Deleted is true when the rule was removed because no route remained.
	Deleted bool `json:"deleted,omitempty"`
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

// ports maps instance IDs of the workload level to their service ports.
func (u *UseCase) ports(ctx context.Context, workloadID, level string) (map[string]int32, error) {
	instances, err := u.Repos.Instance.List(ctx, workloadID, level)
	if err != nil {
		return nil, fmt.Errorf("list service instances: %w", err)
	}
	out := make(map[string]int32, len(instances))
	for _, s := range instances {
		out[s.ID] = int32(s.Port)
	}
	return out, nil
}
