package deployment

import (
	"context"
	"fmt"
	"time"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/logging"
	"github.com/kompox/modelops/internal/metrics"
	"github.com/kompox/modelops/usecase/routing"
	"golang.org/x/sync/errgroup"
)

// RemoveInput names the instance to tear down.
type RemoveInput struct {
	InstanceID string `json:"instanceID"`
}

// RemoveOutput reports the routes left behind per cluster target.
type RemoveOutput struct {
	InstanceID string                 `json:"instanceID"`
	Routes     []routing.TargetRoutes `json:"routes"`
}

// Remove deletes the Deployment, Service and HPA of an instance on every
// cluster target, drops its route and finally deletes the registry row.
// Missing objects are not errors, so Remove can be retried.
func (u *UseCase) Remove(ctx context.Context, in *RemoveInput) (out *RemoveOutput, err error) {
	if in == nil || in.InstanceID == "" {
		return nil, model.Invalid("instanceID", "is required")
	}
	start := time.Now()
	ctx, done := logging.Span(ctx, "UC:Remove", "instance", in.InstanceID)
	defer func() { done(err) }()

	s, err := u.Repos.Instance.Get(ctx, in.InstanceID)
	if err != nil {
		return nil, err
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
	objects := []struct {
		kind kube.Kind
		name string
	}{
		{kube.KindDeployment, kube.DeploymentName(s.ID)},
		{kube.KindService, kube.ServiceName(s.ID)},
		{kube.KindHPA, kube.HPAName(s.ID)},
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		g.Go(func() error {
			client, err := u.connect(gctx, t)
			if err != nil {
				return err
			}
			for _, o := range objects {
				if err := client.DeleteObject(gctx, o.kind, ns, o.name); err != nil {
					return fmt.Errorf("target %s: %w", t.Name, err)
				}
				u.Metrics.ObjectApplied(string(o.kind), metrics.ActionDeleted)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	routes, err := u.Router.Remove(ctx, &routing.RemoveInput{WorkloadID: w.ID, Level: s.Level, InstanceID: s.ID})
	if err != nil {
		return nil, fmt.Errorf("remove route: %w", err)
	}
	if err := u.Repos.Instance.Delete(ctx, s.ID); err != nil {
		return nil, fmt.Errorf("delete service instance: %w", err)
	}
	u.Metrics.ObserveSince("remove", start)
	return &RemoveOutput{InstanceID: s.ID, Routes: routes.Targets}, nil
}
