package reconcile

import (
	"time"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/domain"
	"github.com/kompox/modelops/internal/metrics"
)

// Repos holds repositories needed for reconciliation.
type Repos struct {
	Target   domain.TargetRepository
	Workload domain.WorkloadRepository
	Instance domain.InstanceRepository
	Artifact domain.ArtifactRepository
}

// UseCase synchronizes the registry with the worker Deployments found on
// cluster targets.
type UseCase struct {
	Repos     *Repos
	Connector kube.Connector
	Metrics   *metrics.Metrics
	// Now overrides the clock; the pass start and liveness stamps use it.
	Now func() time.Time
}

func (u *UseCase) now() time.Time {
	if u.Now != nil {
		return u.Now().UTC()
	}
	return time.Now().UTC()
}
