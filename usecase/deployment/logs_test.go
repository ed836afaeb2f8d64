package deployment

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/domain/model"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func TestLogs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	out := f.deploy(t, irisSpec())
	east := f.targets[0]
	pod := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{
		Name:      kube.DeploymentName(out.InstanceID) + "-x1",
		Namespace: "staging",
		Labels:    kube.PodSelector(out.WorkloadID, out.InstanceID),
	}}
	if _, err := f.conn.Cluster(east.ID).Typed.CoreV1().Pods("staging").Create(ctx, pod, metav1.CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := f.uc.Logs(ctx, &LogsInput{InstanceID: out.InstanceID, TailLines: 50, Out: &buf}); err != nil {
		t.Fatalf("Logs: %v", err)
	}
	want := "==> east <==\n[" + pod.Name + "] fake logs\n==> west <==\n"
	if buf.String() != want {
		t.Errorf("logs = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if _, err := f.uc.Logs(ctx, &LogsInput{InstanceID: out.InstanceID, TargetID: f.targets[1].ID, Out: &buf}); err != nil {
		t.Fatalf("Logs west: %v", err)
	}
	if buf.String() != "==> west <==\n" {
		t.Errorf("west logs = %q", buf.String())
	}

	if _, err := f.uc.Logs(ctx, &LogsInput{InstanceID: out.InstanceID, Follow: true, Out: &buf}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("follow across targets: want validation error, got %v", err)
	}
	if _, err := f.uc.Logs(ctx, &LogsInput{InstanceID: out.InstanceID, TargetID: "nope", Out: &buf}); !errors.Is(err, model.ErrTargetNotFound) {
		t.Errorf("unknown target: want ErrTargetNotFound, got %v", err)
	}
	if _, err := f.uc.Logs(ctx, &LogsInput{InstanceID: "missing", Out: &buf}); !errors.Is(err, model.ErrInstanceNotFound) {
		t.Errorf("unknown instance: want ErrInstanceNotFound, got %v", err)
	}
}
