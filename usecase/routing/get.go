package routing

import (
	"context"
	"fmt"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/domain/model"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// GetInput identifies the traffic rule to read.
type GetInput struct {
	// TargetID selects the cluster; empty means the first target of the project.
	TargetID   string `json:"targetID"`
	WorkloadID string `json:"workloadID"`
	Level      string `json:"level"`
}

// GetOutput is the route list of the rule. Registry instances of the level
// that the rule does not route to are appended with weight 0.
type GetOutput struct {
	TargetID string         `json:"targetID"`
	Exists   bool           `json:"exists"`
	Routes   model.RouteSet `json:"routes"`
}

// Get reads the live routing of a workload level.
func (u *UseCase) Get(ctx context.Context, in *GetInput) (*GetOutput, error) {
	if in == nil || in.WorkloadID == "" || in.Level == "" {
		return nil, model.Invalid("routing", "workload and level are required")
	}
	w, err := u.Repos.Workload.Get(ctx, in.WorkloadID)
	if err != nil {
		return nil, err
	}
	var target *model.ClusterTarget
	if in.TargetID != "" {
		if target, err = u.Repos.Target.Get(ctx, in.TargetID); err != nil {
			return nil, err
		}
		if target.ProjectID != w.ProjectID {
			return nil, fmt.Errorf("target %s is not in project %q: %w", target.ID, w.ProjectID, model.ErrTargetNotFound)
		}
	} else {
		targets, err := u.targets(ctx, w.ProjectID)
		if err != nil {
			return nil, err
		}
		target = targets[0]
	}
	client, err := u.Connector.Connect(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("connect target %s: %w", target.Name, err)
	}

	out := &GetOutput{TargetID: target.ID, Routes: model.RouteSet{}}
	ns := kube.Namespace(u.Manifest.NamespacePrefix, in.Level)
	vs, err := client.GetVirtualService(ctx, ns, kube.VirtualServiceName(w.ID))
	switch {
	case err == nil:
		out.Exists = true
		out.Routes = vs.Routes()
	case apierrors.IsNotFound(err):
	default:
		return nil, err
	}

	instances, err := u.Repos.Instance.List(ctx, w.ID, in.Level)
	if err != nil {
		return nil, fmt.Errorf("list service instances: %w", err)
	}
	for _, s := range instances {
		if out.Routes.Index(s.ID) < 0 {
			out.Routes = append(out.Routes, model.Route{InstanceID: s.ID, Weight: 0})
		}
	}
	return out, nil
}
