package deployment

import (
	"context"
	"fmt"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/adapters/lock"
	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/logging"
	"github.com/kompox/modelops/internal/metrics"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// AppliedObject records what Apply did to one cluster object.
type AppliedObject struct {
	Kind kube.Kind `json:"kind"`
	Name string    `json:"name"`
	// Action is one of created, patched or skipped.
	Action string `json:"action"`
}

// ApplyInput is a manifest set for one cluster target.
type ApplyInput struct {
	TargetID  string
	Manifests *kube.Manifests
}

// ApplyOutput lists the objects in apply order.
type ApplyOutput struct {
	Objects []AppliedObject `json:"objects"`
}

// Apply creates or patches the manifests on one cluster target. Object
// existence, not DeploySpec.Creating, decides between create and patch,
// so Apply can be retried wholesale after a partial failure.
func (u *UseCase) Apply(ctx context.Context, in *ApplyInput) (*ApplyOutput, error) {
	if in == nil || in.TargetID == "" || in.Manifests == nil {
		return nil, model.Invalid("apply", "target and manifests are required")
	}
	t, err := u.Repos.Target.Get(ctx, in.TargetID)
	if err != nil {
		return nil, err
	}
	client, err := u.connect(ctx, t)
	if err != nil {
		return nil, err
	}
	objs, err := u.apply(ctx, client, in.Manifests)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", t.Name, err)
	}
	return &ApplyOutput{Objects: objs}, nil
}

// apply ensures the namespace, then writes Deployment, Service and HPA, then
// the traffic rule. The rule is shared by the instances of a workload level
// and is only created when absent, seeded with the new instance at full
// weight; later instances join it through routing updates. The existence
// check and create run under the route lock shared with routing writers.
func (u *UseCase) apply(ctx context.Context, client kube.ClusterClient, m *kube.Manifests) ([]AppliedObject, error) {
	logger := logging.FromContext(ctx)
	if err := client.EnsureNamespace(ctx, m.Namespace); err != nil {
		return nil, err
	}

	var out []AppliedObject
	for _, obj := range []kube.Object{m.Deployment, m.Service, m.HPA} {
		kind, err := kube.KindOf(obj)
		if err != nil {
			return out, err
		}
		exists, err := client.ObjectExists(ctx, kind, obj.GetNamespace(), obj.GetName())
		if err != nil {
			return out, err
		}
		action := metrics.ActionPatched
		if exists {
			err = client.UpdateObject(ctx, obj)
		} else {
			action = metrics.ActionCreated
			err = client.CreateObject(ctx, obj)
			if apierrors.IsAlreadyExists(err) {
				logger.Info(ctx, "UC:Apply:raced", "kind", kind, "name", obj.GetName())
				action = metrics.ActionPatched
				err = client.UpdateObject(ctx, obj)
			}
		}
		if err != nil {
			return out, err
		}
		u.Metrics.ObjectApplied(string(kind), action)
		out = append(out, AppliedObject{Kind: kind, Name: obj.GetName(), Action: action})
	}

	vs := m.VirtualService
	unlock, err := u.lockRoute(ctx, m.WorkloadID, m.Level)
	if err != nil {
		return out, err
	}
	defer unlock()
	exists, err := client.ObjectExists(ctx, kube.KindVirtualService, vs.Namespace, vs.Name)
	if err != nil {
		return out, err
	}
	action := metrics.ActionSkipped
	if !exists {
		_, err := client.CreateVirtualService(ctx, vs)
		switch {
		case err == nil:
			action = metrics.ActionCreated
		case apierrors.IsAlreadyExists(err):
		default:
			return out, err
		}
	}
	u.Metrics.ObjectApplied(string(kube.KindVirtualService), action)
	out = append(out, AppliedObject{Kind: kube.KindVirtualService, Name: vs.Name, Action: action})
	return out, nil
}

func (u *UseCase) lockRoute(ctx context.Context, workloadID, level string) (func(), error) {
	if u.Router == nil || u.Router.Locker == nil {
		return func() {}, nil
	}
	unlock, err := u.Router.Locker.Lock(ctx, lock.RouteKey(workloadID, level))
	if err != nil {
		return nil, fmt.Errorf("acquire route lock: %w", err)
	}
	return unlock, nil
}
