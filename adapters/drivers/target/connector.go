package targetdrv

import (
	"context"
	"fmt"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/kubeconfig"
	"github.com/kompox/modelops/internal/logging"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// Connector opens cluster clients for targets through their drivers.
type Connector struct {
	// Options tune the REST clients it builds.
	Options *kube.Options
}

// NewConnector returns a Connector using the given client options.
func NewConnector(opts *kube.Options) *Connector {
	return &Connector{Options: opts}
}

// Kubeconfig returns the normalized kubeconfig of target with a single
// context named after the target.
func (c *Connector) Kubeconfig(ctx context.Context, target *model.ClusterTarget) (*clientcmdapi.Config, error) {
	d, err := New(target)
	if err != nil {
		return nil, err
	}
	data, err := d.Kubeconfig(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("target %s: fetch kubeconfig: %w", target.Name, err)
	}
	cfg, err := kubeconfig.LoadAndNormalize(data, target.Name, "")
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", target.Name, err)
	}
	return cfg, nil
}

// Connect returns a cluster client for target.
func (c *Connector) Connect(ctx context.Context, target *model.ClusterTarget) (kube.ClusterClient, error) {
	cfg, err := c.Kubeconfig(ctx, target)
	if err != nil {
		return nil, err
	}
	data, err := kubeconfig.Bytes(cfg)
	if err != nil {
		return nil, err
	}
	client, err := kube.NewClientFromKubeconfig(ctx, data, c.Options)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", target.Name, err)
	}
	logging.FromContext(ctx).Debug(ctx, "Target:Connect/eok", "target", target.Name, "driver", target.Driver)
	return client, nil
}
