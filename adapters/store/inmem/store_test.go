package inmem

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kompox/modelops/domain/model"
)

func TestReferentialGuards(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	w := &model.Workload{ProjectID: "p", Name: "iris"}
	if err := repos.Workload.Create(ctx, w); err != nil {
		t.Fatal(err)
	}
	if err := repos.Workload.Create(ctx, &model.Workload{ProjectID: "p", Name: "iris"}); !errors.Is(err, model.ErrWorkloadExists) {
		t.Errorf("duplicate workload: %v", err)
	}
	a := &model.ModelArtifact{WorkloadID: w.ID, Path: "m.pkl"}
	if err := repos.Artifact.Create(ctx, a); err != nil {
		t.Fatal(err)
	}
	s := &model.ServiceInstance{WorkloadID: w.ID, Level: "production", ModelID: a.ID}
	if err := repos.Instance.Create(ctx, s); err != nil {
		t.Fatal(err)
	}

	if err := repos.Artifact.Delete(ctx, a.ID); !errors.Is(err, model.ErrArtifactInUse) {
		t.Errorf("delete referenced artifact: %v", err)
	}
	if err := repos.Workload.Delete(ctx, w.ID); !errors.Is(err, model.ErrReferential) {
		t.Errorf("delete workload with instances: %v", err)
	}
	if err := repos.Instance.Delete(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if err := repos.Artifact.Delete(ctx, a.ID); err != nil {
		t.Errorf("delete free artifact: %v", err)
	}
	if err := repos.Workload.Delete(ctx, w.ID); err != nil {
		t.Errorf("delete empty workload: %v", err)
	}
}

func TestCopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	tgt := &model.ClusterTarget{ProjectID: "p", Name: "t", Settings: map[string]string{"k": "v"}}
	if err := repos.Target.Create(ctx, tgt); err != nil {
		t.Fatal(err)
	}
	tgt.Settings["k"] = "mutated"
	got, err := repos.Target.Get(ctx, tgt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Settings["k"] != "v" {
		t.Errorf("stored settings aliased caller map: %v", got.Settings)
	}
}

func TestDeleteStale(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	start := t0.Add(time.Minute)

	w1 := &model.Workload{ProjectID: "p", Name: "a", LiveAt: t0}
	w2 := &model.Workload{ProjectID: "p", Name: "b", LiveAt: t0}
	for _, w := range []*model.Workload{w1, w2} {
		if err := repos.Workload.Create(ctx, w); err != nil {
			t.Fatal(err)
		}
	}
	s1 := &model.ServiceInstance{WorkloadID: w1.ID, LiveAt: t0}
	s2 := &model.ServiceInstance{WorkloadID: w1.ID, LiveAt: t0}
	for _, s := range []*model.ServiceInstance{s1, s2} {
		if err := repos.Instance.Create(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	_ = repos.Workload.Touch(ctx, w1.ID, start)
	_ = repos.Instance.Touch(ctx, s1.ID, start)

	ids, err := repos.Instance.DeleteStale(ctx, w1.ID, start)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != s2.ID {
		t.Errorf("pruned = %v", ids)
	}
	wids, err := repos.Workload.DeleteStale(ctx, "p", start)
	if err != nil {
		t.Fatal(err)
	}
	if len(wids) != 1 || wids[0] != w2.ID {
		t.Errorf("pruned workloads = %v", wids)
	}
}
