// Package kubeconfig registers the "kubeconfig" target driver, which reads
// credentials from a local kubeconfig file.
package kubeconfig

import (
	"context"
	"fmt"
	"os"
	"strings"

	targetdrv "github.com/kompox/modelops/adapters/drivers/target"
	"github.com/kompox/modelops/domain/model"
	"k8s.io/client-go/tools/clientcmd"
)

// Settings keys.
const (
	SettingPath    = "KUBECONFIG_PATH"
	SettingContext = "KUBECONFIG_CONTEXT"
)

type driver struct {
	path    string
	context string
}

func (d *driver) ID() string { return "kubeconfig" }

func init() {
	targetdrv.Register("kubeconfig", func(settings map[string]string) (targetdrv.Driver, error) {
		path := strings.TrimSpace(settings[SettingPath])
		if path == "" {
			return nil, fmt.Errorf("%s is required", SettingPath)
		}
		return &driver{path: os.ExpandEnv(path), context: strings.TrimSpace(settings[SettingContext])}, nil
	})
}

// Kubeconfig reads the file and selects the configured context.
func (d *driver) Kubeconfig(_ context.Context, _ *model.ClusterTarget) ([]byte, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("read kubeconfig file: %w", err)
	}
	if d.context == "" {
		return data, nil
	}
	cfg, err := clientcmd.Load(data)
	if err != nil {
		return nil, fmt.Errorf("parse kubeconfig: %w", err)
	}
	if _, ok := cfg.Contexts[d.context]; !ok {
		return nil, fmt.Errorf("context %q not found in %s", d.context, d.path)
	}
	cfg.CurrentContext = d.context
	return clientcmd.Write(*cfg)
}
