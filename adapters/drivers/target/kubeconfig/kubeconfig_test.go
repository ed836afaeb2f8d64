package kubeconfig

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	targetdrv "github.com/kompox/modelops/adapters/drivers/target"
	"github.com/kompox/modelops/domain/model"
)

const sample = `apiVersion: v1
kind: Config
current-context: dev
clusters:
- name: dev
  cluster: {server: https://dev.example}
- name: prod
  cluster: {server: https://prod.example}
users:
- name: u
  user: {token: t}
contexts:
- name: dev
  context: {cluster: dev, user: u}
- name: prod
  context: {cluster: prod, user: u}
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConnectorKubeconfig(t *testing.T) {
	target := &model.ClusterTarget{
		Name:     "east",
		Driver:   "kubeconfig",
		Settings: map[string]string{SettingPath: writeSample(t), SettingContext: "prod"},
	}
	cfg, err := targetdrv.NewConnector(nil).Kubeconfig(context.Background(), target)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentContext != "east" {
		t.Errorf("current context = %q", cfg.CurrentContext)
	}
	if got := cfg.Clusters["east"].Server; got != "https://prod.example" {
		t.Errorf("server = %q", got)
	}

	client, err := targetdrv.NewConnector(nil).Connect(context.Background(), target)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if client == nil {
		t.Fatal("nil client")
	}
}

func TestDriverSettings(t *testing.T) {
	_, err := targetdrv.New(&model.ClusterTarget{Name: "x", Driver: "kubeconfig"})
	if !errors.Is(err, model.ErrTargetInvalid) {
		t.Errorf("missing path: %v", err)
	}
	_, err = targetdrv.New(&model.ClusterTarget{Name: "x", Driver: "nope"})
	if !errors.Is(err, model.ErrTargetInvalid) {
		t.Errorf("unknown driver: %v", err)
	}

	d, err := targetdrv.New(&model.ClusterTarget{Name: "x", Driver: "kubeconfig", Settings: map[string]string{SettingPath: writeSample(t), SettingContext: "missing"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Kubeconfig(context.Background(), nil); err == nil {
		t.Error("expected error for missing context")
	}
}
