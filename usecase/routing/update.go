package routing

import (
	"context"
	"fmt"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/logging"
	"github.com/kompox/modelops/internal/metrics"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/client-go/util/retry"
)

// mutateFunc computes the next route list from the live one. Returning false
// leaves the rule untouched.
type mutateFunc func(current model.RouteSet) (model.RouteSet, bool)

// updateRule applies mutate to the rule as a versioned read-modify-write,
// retrying when another writer changed the rule in between. An empty result
// deletes the rule. A missing rule is reported with missing=true.
func (u *UseCase) updateRule(ctx context.Context, op string, client kube.ClusterClient, namespace, name string, ports map[string]int32, mutate mutateFunc) (out TargetRoutes, missing bool, err error) {
	logger := logging.FromContext(ctx)
	err = retry.RetryOnConflict(retry.DefaultRetry, func() error {
		vs, err := client.GetVirtualService(ctx, namespace, name)
		if err != nil {
			if apierrors.IsNotFound(err) {
				missing = true
				return nil
			}
			return err
		}
		missing = false
		next, changed := mutate(vs.Routes())
		if !changed {
			out.Routes = vs.Routes()
			return nil
		}
		if len(next) == 0 {
			if err := client.DeleteVirtualService(ctx, namespace, name); err != nil {
				return err
			}
			out.Routes, out.Deleted = nil, true
			return nil
		}
		if err := vs.SetRoutes(next, ports); err != nil {
			return model.Invalid("routes", "%v", err)
		}
		updated, err := client.UpdateVirtualService(ctx, vs)
		if err != nil {
			if apierrors.IsConflict(err) {
				u.Metrics.RouteUpdate(op, metrics.OutcomeConflict)
				logger.Info(ctx, "UC:Routing:Update/conflict", "ns", namespace, "name", name, "rv", vs.ResourceVersion)
			}
			return err
		}
		out.Routes = updated.Routes()
		return nil
	})
	if err != nil {
		return out, missing, fmt.Errorf("update traffic rule %s/%s: %w", namespace, name, err)
	}
	return out, missing, nil
}
