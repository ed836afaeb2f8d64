package target

import (
	"context"
	"fmt"

	"github.com/kompox/modelops/domain/model"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// KubeconfigInput identifies the target.
type KubeconfigInput struct {
	TargetID string `json:"targetID"`
}

// KubeconfigOutput carries the normalized kubeconfig of the target.
type KubeconfigOutput struct {
	Config *clientcmdapi.Config
}

// Kubeconfig fetches credentials through the target's driver.
func (u *UseCase) Kubeconfig(ctx context.Context, in *KubeconfigInput) (*KubeconfigOutput, error) {
	if in == nil || in.TargetID == "" {
		return nil, model.ErrTargetNotFound
	}
	if u.Credentials == nil {
		return nil, fmt.Errorf("no kubeconfig source configured")
	}
	t, err := u.Repos.Target.Get(ctx, in.TargetID)
	if err != nil {
		return nil, err
	}
	cfg, err := u.Credentials.Kubeconfig(ctx, t)
	if err != nil {
		return nil, err
	}
	return &KubeconfigOutput{Config: cfg}, nil
}
