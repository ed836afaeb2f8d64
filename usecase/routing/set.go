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
	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// SetInput replaces the route list of a workload level.
type SetInput struct {
	WorkloadID string         `json:"workloadID"`
	Level      string         `json:"level"`
	Routes     model.RouteSet `json:"routes"`
}

// SetOutput reports the routes written per cluster target.
type SetOutput struct {
	Targets []TargetRoutes `json:"targets"`
}

// Set validates the weights and writes them to the rule on every cluster
// target of the workload's project. Invalid weights never reach a cluster,
// and nothing is written unless every target carries the rule.
func (u *UseCase) Set(ctx context.Context, in *SetInput) (out *SetOutput, err error) {
	const op = "set"
	if in == nil || in.WorkloadID == "" || in.Level == "" {
		return nil, model.Invalid("routing", "workload and level are required")
	}
	ctx, done := logging.Span(ctx, "UC:Routing:Set", "workload", in.WorkloadID, "level", in.Level)
	defer func() { done(err) }()

	if err := in.Routes.Validate(); err != nil {
		u.Metrics.RouteUpdate(op, metrics.OutcomeInvalid)
		return nil, err
	}
	w, err := u.Repos.Workload.Get(ctx, in.WorkloadID)
	if err != nil {
		return nil, err
	}
	ports, err := u.ports(ctx, w.ID, in.Level)
	if err != nil {
		return nil, err
	}
	for _, r := range in.Routes {
		if _, ok := ports[r.InstanceID]; !ok {
			u.Metrics.RouteUpdate(op, metrics.OutcomeInvalid)
			return nil, model.Invalid("routes", "service instance %s is not deployed at level %s", r.InstanceID, in.Level)
		}
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
	// Every target must carry the rule before any of them is written.
	clients := make([]kube.ClusterClient, len(targets))
	pre, pctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		pre.Go(func() error {
			client, err := u.Connector.Connect(pctx, t)
			if err != nil {
				return fmt.Errorf("connect target %s: %w", t.Name, err)
			}
			if _, err := client.GetVirtualService(pctx, ns, name); err != nil {
				if apierrors.IsNotFound(err) {
					return fmt.Errorf("target %s: traffic rule %s/%s does not exist: %w", t.Name, ns, name, err)
				}
				return fmt.Errorf("target %s: %w", t.Name, err)
			}
			clients[i] = client
			return nil
		})
	}
	if err := pre.Wait(); err != nil {
		u.Metrics.RouteUpdate(op, metrics.OutcomeError)
		return nil, err
	}

	results := make([]TargetRoutes, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			res, missing, err := u.updateRule(gctx, op, clients[i], ns, name, ports, func(model.RouteSet) (model.RouteSet, bool) {
				return in.Routes.Clone(), true
			})
			if err != nil {
				return fmt.Errorf("target %s: %w", t.Name, err)
			}
			if missing {
				return fmt.Errorf("target %s: traffic rule %s/%s does not exist", t.Name, ns, name)
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
	return &SetOutput{Targets: results}, nil
}
