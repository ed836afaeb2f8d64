package modelopscfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kompox/modelops/domain/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp yaml: %v", err)
	}
	return path
}

func TestLoad_Success(t *testing.T) {
	path := writeFile(t, "modelops.yml", `
version: v1
project: vision
ingress:
  gateway: istio-system/public
  hosts: [models.example.com]
  namespacePrefix: ml-
targets:
  - name: east
    driver: kubeconfig
    settings:
      KUBECONFIG_PATH: ~/.kube/east
  - name: west
    driver: aks
    settings:
      AZURE_SUBSCRIPTION_ID: 00000000-0000-0000-0000-000000000000
lock:
  url: redis://localhost:6379/0
  ttl: 45s
logging:
  level: DEBUG
  retentionDays: 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if cfg.Project != "vision" || cfg.Ingress.NamespacePrefix != "ml-" || len(cfg.Targets) != 2 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Targets[0].Settings["KUBECONFIG_PATH"] != "~/.kube/east" {
		t.Errorf("target settings = %v", cfg.Targets[0].Settings)
	}
	if cfg.Lock.TTL != 45*time.Second || cfg.Logging.RetentionDays != 3 {
		t.Errorf("lock = %+v, logging = %+v", cfg.Lock, cfg.Logging)
	}
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeFile(t, "modelops.yml", "project: vision\nclusters: []\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "clusters") {
		t.Fatalf("want unknown field error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		root    Root
		wantErr string
	}{
		{"ok", Root{Project: "vision", Targets: []Target{{Name: "east", Driver: "kubeconfig"}}}, ""},
		{"no project", Root{}, "project is required"},
		{"bad project", Root{Project: "Vision"}, "project"},
		{"bad prefix", Root{Project: "vision", Ingress: Ingress{NamespacePrefix: "ML_"}}, "namespacePrefix"},
		{"duplicate target", Root{Project: "vision", Targets: []Target{{Name: "east", Driver: "a"}, {Name: "east", Driver: "a"}}}, "duplicate"},
		{"no driver", Root{Project: "vision", Targets: []Target{{Name: "east"}}}, "driver"},
		{"negative ttl", Root{Project: "vision", Lock: Lock{TTL: -time.Second}}, "ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.root.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("want error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadDeployToSpec(t *testing.T) {
	t.Setenv("IRIS_SECRET", "s3cr3t")
	path := writeFile(t, "deploy.yml", `
workload: iris
level: staging
version: v1
message: retrained on may data
image: registry.local/iris-worker:2
port: 9000
replicas: {default: 2, max: 4}
resources:
  cpuRequest: 500m
  memoryLimit: 1Gi
model:
  path: models/iris-2.pkl
  version: "2"
storage:
  mode: s3
  accessKey: AKIA
  secretKey: ${IRIS_SECRET}
  bucket: models
`)
	d, err := LoadDeploy(path)
	if err != nil {
		t.Fatalf("LoadDeploy: %v", err)
	}
	spec := d.ToSpec("vision")
	if spec.ProjectID != "vision" || spec.WorkloadName != "iris" || spec.InstanceID != "" || spec.Port != 9000 {
		t.Errorf("spec = %+v", spec)
	}
	if spec.Replicas != (model.Replicas{Default: 2, Min: 2, Max: 4}) {
		t.Errorf("replicas = %+v", spec.Replicas)
	}
	if spec.Rollout != (model.RolloutPolicy{MaxSurge: 1, WaitSeconds: DefaultWaitSeconds}) || spec.AutoscaleCPU != DefaultAutoscaleCPU {
		t.Errorf("rollout = %+v, cpu = %d", spec.Rollout, spec.AutoscaleCPU)
	}
	if spec.Storage.SecretKey != "s3cr3t" || spec.Model.Path != "models/iris-2.pkl" || spec.Resources.CPURequest != "500m" {
		t.Errorf("spec = %+v", spec)
	}
}

func TestToSpecKeepsExplicitRollout(t *testing.T) {
	d := &Deploy{Replicas: Replicas{Max: 3}, Rollout: &Rollout{MaxSurge: 0, MaxUnavailable: 0, WaitSeconds: 300}}
	spec := d.ToSpec("vision")
	if spec.Rollout.MaxSurge != 0 || spec.Rollout.MaxUnavailable != 0 || spec.Rollout.WaitSeconds != 300 {
		t.Errorf("rollout = %+v", spec.Rollout)
	}
	if spec.Replicas != (model.Replicas{Default: 1, Min: 1, Max: 3}) {
		t.Errorf("replicas = %+v", spec.Replicas)
	}
}

func TestRootConverters(t *testing.T) {
	r := &Root{
		Project: "vision",
		Ingress: Ingress{Gateway: "istio-system/public", Hosts: []string{"models.example.com"}, NamespacePrefix: "ml-"},
		Targets: []Target{{Name: "east", Driver: "kubeconfig", Settings: map[string]string{"KUBECONFIG_PATH": "/tmp/east"}}},
	}
	opts := r.ManifestOptions()
	if opts.NamespacePrefix != "ml-" || len(opts.Gateways) != 1 || opts.Gateways[0] != "istio-system/public" || opts.Hosts[0] != "models.example.com" {
		t.Errorf("ManifestOptions = %+v", opts)
	}
	targets := r.ToTargets()
	if len(targets) != 1 || targets[0].ProjectID != "vision" || targets[0].Name != "east" || targets[0].Driver != "kubeconfig" {
		t.Fatalf("ToTargets = %+v", targets)
	}
	targets[0].Settings["KUBECONFIG_PATH"] = "changed"
	if r.Targets[0].Settings["KUBECONFIG_PATH"] != "/tmp/east" {
		t.Errorf("ToTargets shares settings map with config")
	}
	if len((&Root{}).ManifestOptions().Gateways) != 0 {
		t.Errorf("empty gateway should yield no gateways")
	}
}
