package routing

import (
	"context"
	"fmt"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/adapters/lock"
	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/logging"
	"github.com/kompox/modelops/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// RemoveInput names the instance whose route is dropped.
type RemoveInput struct {
	WorkloadID string `json:"workloadID"`
	Level      string `json:"level"`
	InstanceID string `json:"instanceID"`
}

// RemoveOutput reports the remaining routes per cluster target.
type RemoveOutput struct {
	Targets []TargetRoutes `json:"targets"`
}

// Remove drops the route of an instance on every cluster target of the
// project and rescales the remaining weights (see model.RouteSet.Without).
// The rule is deleted once its last route is gone. Targets without the rule
// or without the route are left alone.
func (u *UseCase) Remove(ctx context.Context, in *RemoveInput) (out *RemoveOutput, err error) {
	const op = "remove"
	if in == nil || in.WorkloadID == "" || in.Level == "" || in.InstanceID == "" {
		return nil, model.Invalid("routing", "workload, level and instance are required")
	}
	ctx, done := logging.Span(ctx, "UC:Routing:Remove", "workload", in.WorkloadID, "level", in.Level, "instance", in.InstanceID)
	defer func() { done(err) }()

	w, err := u.Repos.Workload.Get(ctx, in.WorkloadID)
	if err != nil {
		return nil, err
	}
	ports, err := u.ports(ctx, w.ID, in.Level)
	if err != nil {
		return nil, err
	}
	targets, err := u.targets(ctx, w.ProjectID)
	if err != nil {
		return nil, err
	}

	unlock, err := u.Locker.Lock(ctx, lock.RouteKey(w.ID, in.Level))
	if err != nil {
		return nil, fmt.Errorf("acquire route lock: %w", err)
	}
	defer unlock()

	ns := kube.Namespace(u.Manifest.NamespacePrefix, in.Level)
	name := kube.VirtualServiceName(w.ID)
	results := make([]TargetRoutes, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			client, err := u.Connector.Connect(gctx, t)
			if err != nil {
				return fmt.Errorf("connect target %s: %w", t.Name, err)
			}
			res, _, err := u.updateRule(gctx, op, client, ns, name, ports, func(cur model.RouteSet) (model.RouteSet, bool) {
				return cur.Without(in.InstanceID)
			})
			if err != nil {
				return fmt.Errorf("target %s: %w", t.Name, err)
			}
			res.TargetID = t.ID
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		u.Metrics.RouteUpdate(op, metrics.OutcomeError)
		return nil, err
	}
	u.Metrics.RouteUpdate(op, metrics.OutcomeOK)
	return &RemoveOutput{Targets: results}, nil
}
