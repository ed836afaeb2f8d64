package kube_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/adapters/kube/kubefake"
	"github.com/kompox/modelops/domain/model"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	k8stesting "k8s.io/client-go/testing"
)

func manifests(t *testing.T) *kube.Manifests {
	t.Helper()
	m, err := kube.BuildManifests(&model.DeploySpec{
		WorkloadID:   "wl-1",
		WorkloadName: "iris",
		InstanceID:   "abc123",
		Level:        "staging",
		Replicas:     model.Replicas{Default: 1, Min: 1, Max: 2},
		Rollout:      model.RolloutPolicy{MaxSurge: 1, WaitSeconds: 60},
		AutoscaleCPU: 80,
		Image:        "worker:1",
		Port:         9000,
	}, kube.ManifestOptions{})
	if err != nil {
		t.Fatalf("BuildManifests: %v", err)
	}
	return m
}

func TestEnsureNamespaceIdempotent(t *testing.T) {
	ctx := context.Background()
	c := kubefake.New()
	for i := 0; i < 2; i++ {
		if err := c.EnsureNamespace(ctx, "staging"); err != nil {
			t.Fatalf("EnsureNamespace #%d: %v", i, err)
		}
	}
	ns, err := c.Typed.CoreV1().Namespaces().Get(ctx, "staging", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("namespace not created: %v", err)
	}
	if ns.Labels[kube.LabelAppK8sManagedBy] != kube.ManagedBy {
		t.Errorf("labels = %v", ns.Labels)
	}
}

func TestCreateUpdateDeleteObject(t *testing.T) {
	ctx := context.Background()
	c := kubefake.New()
	m := manifests(t)

	for _, obj := range []kube.Object{m.Deployment, m.Service, m.HPA} {
		kind, err := kube.KindOf(obj)
		if err != nil {
			t.Fatal(err)
		}
		exists, err := c.ObjectExists(ctx, kind, obj.GetNamespace(), obj.GetName())
		if err != nil || exists {
			t.Fatalf("%s exists=%v err=%v before create", kind, exists, err)
		}
		if err := c.CreateObject(ctx, obj); err != nil {
			t.Fatalf("create %s: %v", kind, err)
		}
		if err := c.CreateObject(ctx, obj); !apierrors.IsAlreadyExists(err) {
			t.Fatalf("second create %s: want AlreadyExists, got %v", kind, err)
		}
		exists, err = c.ObjectExists(ctx, kind, obj.GetNamespace(), obj.GetName())
		if err != nil || !exists {
			t.Fatalf("%s exists=%v err=%v after create", kind, exists, err)
		}
	}

	replicas := int32(2)
	m.Deployment.Spec.Replicas = &replicas
	if err := c.UpdateObject(ctx, m.Deployment); err != nil {
		t.Fatalf("update deployment: %v", err)
	}
	dep, err := c.GetDeployment(ctx, "staging", "deploy-abc123")
	if err != nil {
		t.Fatal(err)
	}
	if *dep.Spec.Replicas != 2 {
		t.Errorf("replicas = %d, want 2", *dep.Spec.Replicas)
	}

	list, err := c.ListDeployments(ctx, "", kube.WorkerSelector())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("listed %d deployments, want 1", len(list))
	}

	for _, kind := range []kube.Kind{kube.KindDeployment, kube.KindService, kube.KindHPA} {
		name := map[kube.Kind]string{kube.KindDeployment: "deploy-abc123", kube.KindService: "svc-abc123", kube.KindHPA: "hpa-abc123"}[kind]
		if err := c.DeleteObject(ctx, kind, "staging", name); err != nil {
			t.Fatalf("delete %s: %v", kind, err)
		}
		if err := c.DeleteObject(ctx, kind, "staging", name); err != nil {
			t.Fatalf("second delete %s: %v", kind, err)
		}
	}
}

func TestObjectExistsTransportError(t *testing.T) {
	c := kubefake.New()
	c.Typed.PrependReactor("get", "deployments", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, apierrors.NewServiceUnavailable("down")
	})
	_, err := c.ObjectExists(context.Background(), kube.KindDeployment, "staging", "deploy-x")
	if !apierrors.IsServiceUnavailable(err) {
		t.Fatalf("want ServiceUnavailable, got %v", err)
	}
}

func TestVirtualServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	c := kubefake.New()
	m := manifests(t)

	if _, err := c.GetVirtualService(ctx, "staging", "ing-vs-wl-1"); !apierrors.IsNotFound(err) {
		t.Fatalf("want NotFound, got %v", err)
	}
	created, err := c.CreateVirtualService(ctx, m.VirtualService)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := created.Routes(); len(got) != 1 || got[0].InstanceID != "abc123" || got[0].Weight != 100 {
		t.Errorf("created routes = %v", got)
	}

	vs, err := c.GetVirtualService(ctx, "staging", "ing-vs-wl-1")
	if err != nil {
		t.Fatal(err)
	}
	if err := vs.SetRoutes(model.RouteSet{{InstanceID: "abc123", Weight: 60}, {InstanceID: "def456", Weight: 40}}, map[string]int32{"def456": 9001}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.UpdateVirtualService(ctx, vs); err != nil {
		t.Fatalf("update: %v", err)
	}
	vs, err = c.GetVirtualService(ctx, "staging", "ing-vs-wl-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(vs.Destinations) != 2 || vs.Destinations[1].Port != 9001 || vs.Destinations[1].Weight != 40 {
		t.Errorf("destinations = %+v", vs.Destinations)
	}

	if err := c.DeleteVirtualService(ctx, "staging", "ing-vs-wl-1"); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteVirtualService(ctx, "staging", "ing-vs-wl-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestWorkerLogs(t *testing.T) {
	ctx := context.Background()
	pod := func(name, instance string) *corev1.Pod {
		return &corev1.Pod{ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "staging",
			Labels:    kube.PodSelector("wl-1", instance),
		}}
	}
	c := kubefake.New(pod("deploy-abc123-2", "abc123"), pod("deploy-abc123-1", "abc123"), pod("deploy-other-1", "other"))

	var buf bytes.Buffer
	if err := c.WorkerLogs(ctx, "staging", kube.InstanceSelector("wl-1", "abc123"), &kube.LogOptions{TailLines: 10}, &buf); err != nil {
		t.Fatalf("WorkerLogs: %v", err)
	}
	// The client-go fake serves "fake logs" for every pod.
	want := "[deploy-abc123-1] fake logs\n[deploy-abc123-2] fake logs\n"
	if buf.String() != want {
		t.Errorf("logs = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := c.WorkerLogs(ctx, "staging", kube.InstanceSelector("wl-1", "missing"), nil, &buf); err != nil || buf.Len() != 0 {
		t.Errorf("no pods: err=%v out=%q", err, buf.String())
	}
}

func TestUpdateObjectReplacesSpecKeepsAllocations(t *testing.T) {
	ctx := context.Background()
	c := kubefake.New()
	m := manifests(t)
	m.Service.Spec.ClusterIP = "10.0.0.7"
	m.Service.Annotations = map[string]string{"old": "x"}
	if err := c.CreateObject(ctx, m.Service); err != nil {
		t.Fatal(err)
	}

	next := manifests(t)
	next.Service.Spec.SessionAffinity = corev1.ServiceAffinityClientIP
	if err := c.UpdateObject(ctx, next.Service); err != nil {
		t.Fatalf("update: %v", err)
	}
	svc, err := c.Typed.CoreV1().Services("staging").Get(ctx, "svc-abc123", metav1.GetOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if svc.Spec.ClusterIP != "10.0.0.7" {
		t.Errorf("clusterIP = %q", svc.Spec.ClusterIP)
	}
	if svc.Spec.SessionAffinity != corev1.ServiceAffinityClientIP {
		t.Errorf("sessionAffinity = %q", svc.Spec.SessionAffinity)
	}
	if svc.Annotations["old"] != "x" {
		t.Errorf("foreign annotation dropped: %v", svc.Annotations)
	}
}

func TestUpdateObjectMissing(t *testing.T) {
	c := kubefake.New()
	if err := c.UpdateObject(context.Background(), manifests(t).HPA); !apierrors.IsNotFound(err) {
		t.Fatalf("want NotFound, got %v", err)
	}
}
