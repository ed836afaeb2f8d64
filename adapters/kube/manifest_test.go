package kube

import (
	"errors"
	"strings"
	"testing"

	"github.com/kompox/modelops/domain/model"
	corev1 "k8s.io/api/core/v1"
)

func testSpec() *model.DeploySpec {
	return &model.DeploySpec{
		ProjectID:    "prj1",
		WorkloadID:   "wl-1",
		WorkloadName: "iris",
		InstanceID:   "abc123",
		Level:        model.LevelProduction,
		Version:      "v2",
		Creating:     true,
		Message:      "initial",
		Replicas:     model.Replicas{Default: 2, Min: 1, Max: 3},
		Rollout:      model.RolloutPolicy{MaxSurge: 1, MaxUnavailable: 0, MinReadySeconds: 10, WaitSeconds: 300},
		AutoscaleCPU: 70,
		Image:        "registry.example.com/worker:1.0",
		Resources:    model.Resources{CPURequest: "500m", MemoryRequest: "1Gi", CPULimit: "1", MemoryLimit: "2Gi"},
		Port:         8080,
		Model:        model.ModelRef{Path: "models/iris/v1.pkl", Version: "v1"},
	}
}

func TestProgressDeadline(t *testing.T) {
	tests := []struct {
		name                          string
		wait, max, surge, unavailable int32
		want                          int32
		wantErr                       bool
	}{
		{name: "surge only", wait: 300, max: 3, surge: 1, unavailable: 0, want: 4500},
		{name: "surge and unavailable", wait: 300, max: 3, surge: 1, unavailable: 1, want: 2250},
		{name: "integer division", wait: 100, max: 1, surge: 3, unavailable: 0, want: 166},
		{name: "zero denominator", wait: 300, max: 3, surge: 0, unavailable: 0, wantErr: true},
		{name: "zero wait", wait: 0, max: 3, surge: 1, unavailable: 0, wantErr: true},
		{name: "negative surge", wait: 300, max: 3, surge: -1, unavailable: 2, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ProgressDeadline(tt.wait, tt.max, tt.surge, tt.unavailable)
			if tt.wantErr {
				if !errors.Is(err, model.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("deadline = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuildManifestsNaming(t *testing.T) {
	m, err := BuildManifests(testSpec(), ManifestOptions{})
	if err != nil {
		t.Fatalf("BuildManifests: %v", err)
	}
	if m.Deployment.Name != "deploy-abc123" {
		t.Errorf("deployment name = %s", m.Deployment.Name)
	}
	if m.Service.Name != "svc-abc123" {
		t.Errorf("service name = %s", m.Service.Name)
	}
	if m.HPA.Name != "hpa-abc123" {
		t.Errorf("hpa name = %s", m.HPA.Name)
	}
	if m.VirtualService.Name != "ing-vs-wl-1" {
		t.Errorf("virtualservice name = %s", m.VirtualService.Name)
	}
	if m.Namespace != "production" {
		t.Errorf("namespace = %s", m.Namespace)
	}
	for _, meta := range []map[string]string{m.Deployment.Labels, m.Service.Labels, m.HPA.Labels, m.Deployment.Spec.Template.Labels} {
		if meta[LabelWorker] != "true" || meta[LabelWorkload] != "wl-1" || meta[LabelName] != "iris" || meta[LabelInstance] != "abc123" {
			t.Errorf("labels = %v", meta)
		}
	}
}

func TestBuildManifestsSpec(t *testing.T) {
	m, err := BuildManifests(testSpec(), ManifestOptions{NamespacePrefix: "mo-", Gateways: []string{"istio-system/gw"}})
	if err != nil {
		t.Fatalf("BuildManifests: %v", err)
	}
	if m.Namespace != "mo-production" {
		t.Errorf("namespace = %s", m.Namespace)
	}
	dep := m.Deployment.Spec
	if *dep.Replicas != 2 || *dep.ProgressDeadlineSeconds != 4500 || dep.MinReadySeconds != 10 {
		t.Errorf("deployment spec = replicas %d deadline %d minReady %d", *dep.Replicas, *dep.ProgressDeadlineSeconds, dep.MinReadySeconds)
	}
	if dep.Strategy.RollingUpdate.MaxSurge.IntValue() != 1 || dep.Strategy.RollingUpdate.MaxUnavailable.IntValue() != 0 {
		t.Errorf("rolling update = %+v", dep.Strategy.RollingUpdate)
	}
	c := dep.Template.Spec.Containers[0]
	if c.Image != "registry.example.com/worker:1.0" {
		t.Errorf("image = %s", c.Image)
	}
	if q := c.Resources.Limits[corev1.ResourceMemory]; q.String() != "2Gi" {
		t.Errorf("memory limit = %s", q.String())
	}
	hpa := m.HPA.Spec
	if *hpa.MinReplicas != 1 || hpa.MaxReplicas != 3 || *hpa.Metrics[0].Resource.Target.AverageUtilization != 70 {
		t.Errorf("hpa spec = %+v", hpa)
	}
	if hpa.ScaleTargetRef.Name != "deploy-abc123" {
		t.Errorf("hpa target = %s", hpa.ScaleTargetRef.Name)
	}
	if m.Service.Spec.Selector[LabelInstance] != "abc123" {
		t.Errorf("service selector = %v", m.Service.Spec.Selector)
	}
	vs := m.VirtualService
	if len(vs.Destinations) != 1 || vs.Destinations[0].Weight != 100 || vs.Destinations[0].InstanceID != "abc123" {
		t.Errorf("virtualservice destinations = %+v", vs.Destinations)
	}
	if vs.Prefix != "/iris/" || vs.Hosts[0] != "*" || vs.Gateways[0] != "istio-system/gw" {
		t.Errorf("virtualservice = %+v", vs)
	}
}

func TestBuildManifestsEnv(t *testing.T) {
	spec := testSpec()
	spec.Storage = model.StorageRef{Mode: model.StorageS3, AccessKey: "ak", SecretKey: "sk", Bucket: "models"}
	spec.Boot = model.BootSource{GitURL: "https://git.example.com/iris.git", GitBranch: "main", Script: "boot.sh"}
	m, err := BuildManifests(spec, ManifestOptions{})
	if err != nil {
		t.Fatalf("BuildManifests: %v", err)
	}
	env := map[string]string{}
	for _, e := range m.Deployment.Spec.Template.Spec.Containers[0].Env {
		env[e.Name] = e.Value
	}
	want := map[string]string{
		EnvServiceID:       "abc123",
		EnvServiceLevel:    "production",
		EnvProtocolVersion: "v2",
		EnvApplicationName: "iris",
		EnvPort:            "8080",
		EnvHost:            "svc-abc123.production.svc.cluster.local",
		EnvModelFilePath:   "models/iris/v1.pkl",
		EnvStorageMode:     "s3",
		EnvBucketName:      "models",
		EnvGitBranch:       "main",
		EnvKubernetesMode:  "true",
		EnvUpdateMessage:   "initial",
	}
	for k, v := range want {
		if env[k] != v {
			t.Errorf("%s = %q, want %q", k, env[k], v)
		}
	}

	got, ok := ReadWorkerEnv(m.Deployment.Spec.Template.Spec.Containers)
	if !ok {
		t.Fatal("ReadWorkerEnv found nothing")
	}
	if got.InstanceID != "abc123" || got.Level != "production" || got.Port != 8080 || got.ModelPath != "models/iris/v1.pkl" {
		t.Errorf("ReadWorkerEnv = %+v", got)
	}
}

func TestBuildManifestsLocalStorageOmitsKeys(t *testing.T) {
	m, err := BuildManifests(testSpec(), ManifestOptions{})
	if err != nil {
		t.Fatalf("BuildManifests: %v", err)
	}
	for _, e := range m.Deployment.Spec.Template.Spec.Containers[0].Env {
		switch e.Name {
		case EnvAccessKey, EnvSecretKey, EnvBucketName, EnvGitURL:
			t.Errorf("unexpected env %s", e.Name)
		}
	}
}

func TestBuildManifestsValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.DeploySpec)
	}{
		{"zero surge and unavailable", func(s *model.DeploySpec) { s.Rollout.MaxSurge = 0 }},
		{"missing image", func(s *model.DeploySpec) { s.Image = "" }},
		{"bad port", func(s *model.DeploySpec) { s.Port = 0 }},
		{"min above max", func(s *model.DeploySpec) { s.Replicas.Min = 4 }},
		{"default out of range", func(s *model.DeploySpec) { s.Replicas.Default = 9 }},
		{"bad quantity", func(s *model.DeploySpec) { s.Resources.CPULimit = "lots" }},
		{"bad cpu target", func(s *model.DeploySpec) { s.AutoscaleCPU = 0 }},
		{"uppercase instance", func(s *model.DeploySpec) { s.InstanceID = "ABC" }},
		{"missing workload", func(s *model.DeploySpec) { s.WorkloadID = "" }},
		{"s3 without bucket", func(s *model.DeploySpec) { s.Storage.Mode = model.StorageS3 }},
		{"min ready beyond deadline", func(s *model.DeploySpec) { s.Rollout.MinReadySeconds = 5000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := testSpec()
			tt.mutate(spec)
			_, err := BuildManifests(spec, ManifestOptions{})
			if !errors.Is(err, model.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestBuildManifestsDoesNotMutateSpec(t *testing.T) {
	spec := testSpec()
	before := *spec
	if _, err := BuildManifests(spec, ManifestOptions{}); err != nil {
		t.Fatal(err)
	}
	if *spec != before {
		t.Error("spec mutated")
	}
}

func TestManifestsRender(t *testing.T) {
	m, err := BuildManifests(testSpec(), ManifestOptions{})
	if err != nil {
		t.Fatal(err)
	}
	out, err := m.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := strings.Count(out, "---\n"); got != 4 {
		t.Errorf("documents = %d, want 4", got)
	}
	for _, want := range []string{"kind: Deployment", "kind: Service", "kind: HorizontalPodAutoscaler", "kind: VirtualService", "name: ing-vs-wl-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q", want)
		}
	}
	if strings.Contains(out, "creationTimestamp") {
		t.Error("render output contains creationTimestamp")
	}
}
