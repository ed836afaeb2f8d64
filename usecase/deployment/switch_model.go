package deployment

import (
	"context"
	"fmt"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/logging"
	"github.com/kompox/modelops/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// SwitchModelInput reassigns an instance to another model artifact.
type SwitchModelInput struct {
	InstanceID string `json:"instanceID"`
	ArtifactID string `json:"artifactID"`
}

// SwitchModelOutput is the updated instance.
type SwitchModelOutput struct {
	Instance *model.ServiceInstance `json:"instance"`
}

// SwitchModel patches the worker Deployment of an instance on every cluster
// target to serve the artifact, then updates the registry row. The artifact
// must belong to the instance's workload.
func (u *UseCase) SwitchModel(ctx context.Context, in *SwitchModelInput) (out *SwitchModelOutput, err error) {
	if in == nil || in.InstanceID == "" || in.ArtifactID == "" {
		return nil, model.Invalid("switchModel", "instance and artifact are required")
	}
	ctx, done := logging.Span(ctx, "UC:SwitchModel", "instance", in.InstanceID, "artifact", in.ArtifactID)
	defer func() { done(err) }()

	s, err := u.Repos.Instance.Get(ctx, in.InstanceID)
	if err != nil {
		return nil, err
	}
	a, err := u.Repos.Artifact.Get(ctx, in.ArtifactID)
	if err != nil {
		return nil, err
	}
	if a.WorkloadID != s.WorkloadID {
		return nil, model.Invalid("artifactID", "%s belongs to another workload", a.ID)
	}
	w, err := u.Repos.Workload.Get(ctx, s.WorkloadID)
	if err != nil {
		return nil, err
	}
	targets, err := u.targets(ctx, w.ProjectID)
	if err != nil {
		return nil, err
	}

	ns := kube.Namespace(u.Manifest.NamespacePrefix, s.Level)
	name := kube.DeploymentName(s.ID)
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		g.Go(func() error {
			client, err := u.connect(gctx, t)
			if err != nil {
				return err
			}
			dep, err := client.GetDeployment(gctx, ns, name)
			if err != nil {
				return fmt.Errorf("target %s: %w", t.Name, err)
			}
			if !kube.SetModelPath(dep, a.Path) {
				return fmt.Errorf("target %s: deployment %s/%s has no %s container", t.Name, ns, name, kube.WorkerContainerName)
			}
			if err := client.UpdateObject(gctx, dep); err != nil {
				return fmt.Errorf("target %s: %w", t.Name, err)
			}
			u.Metrics.ObjectApplied(string(kube.KindDeployment), metrics.ActionPatched)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.ModelID = a.ID
	if err := u.Repos.Instance.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("update service instance: %w", err)
	}
	return &SwitchModelOutput{Instance: s}, nil
}
