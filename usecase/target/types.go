package target

import (
	"context"

	"github.com/kompox/modelops/domain"
	"github.com/kompox/modelops/domain/model"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// Repos holds repositories needed for target use cases.
type Repos struct {
	Target domain.TargetRepository
}

// KubeconfigSource resolves the credentials of a target through its driver.
type KubeconfigSource interface {
	Kubeconfig(ctx context.Context, target *model.ClusterTarget) (*clientcmdapi.Config, error)
}

// UseCase wires repositories needed for target use cases.
type UseCase struct {
	Repos       *Repos
	Credentials KubeconfigSource
}
