package artifact

import (
	"context"
	"errors"
	"testing"

	"github.com/kompox/modelops/adapters/store/inmem"
	"github.com/kompox/modelops/domain"
	"github.com/kompox/modelops/domain/model"
)

func setup(t *testing.T) (*UseCase, *domain.Repositories, *model.Workload) {
	t.Helper()
	repos := inmem.NewStore().Repositories()
	w := &model.Workload{ProjectID: "p1", Name: "iris"}
	if err := repos.Workload.Create(context.Background(), w); err != nil {
		t.Fatal(err)
	}
	return &UseCase{Repos: &Repos{Workload: repos.Workload, Artifact: repos.Artifact}}, repos, w
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	uc, _, w := setup(t)

	out, err := uc.Create(ctx, &CreateInput{WorkloadID: w.ID, Path: " models/./iris.pkl ", Version: "1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if out.Artifact.Path != "models/iris.pkl" {
		t.Errorf("path = %q", out.Artifact.Path)
	}
	if _, err := uc.Create(ctx, &CreateInput{WorkloadID: w.ID, Path: "models/iris.pkl"}); !errors.Is(err, model.ErrArtifactExists) {
		t.Errorf("duplicate path: %v", err)
	}
	if _, err := uc.Create(ctx, &CreateInput{WorkloadID: "wl-missing", Path: "x.pkl"}); !errors.Is(err, model.ErrWorkloadNotFound) {
		t.Errorf("unknown workload: %v", err)
	}
	if _, err := uc.Create(ctx, &CreateInput{WorkloadID: w.ID}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("empty path: %v", err)
	}

	list, err := uc.List(ctx, &ListInput{WorkloadID: w.ID})
	if err != nil || len(list.Artifacts) != 1 {
		t.Fatalf("List = %+v, %v", list, err)
	}
}

func TestDeleteReferencedArtifact(t *testing.T) {
	ctx := context.Background()
	uc, repos, w := setup(t)
	out, err := uc.Create(ctx, &CreateInput{WorkloadID: w.ID, Path: "models/iris.pkl"})
	if err != nil {
		t.Fatal(err)
	}
	s := &model.ServiceInstance{ID: "abc", WorkloadID: w.ID, Level: "staging", ModelID: out.Artifact.ID}
	if err := repos.Instance.Create(ctx, s); err != nil {
		t.Fatal(err)
	}

	_, err = uc.Delete(ctx, &DeleteInput{ArtifactID: out.Artifact.ID})
	if !errors.Is(err, model.ErrReferential) || !errors.Is(err, model.ErrArtifactInUse) {
		t.Fatalf("want referential error, got %v", err)
	}
	if _, err := uc.Get(ctx, &GetInput{ArtifactID: out.Artifact.ID}); err != nil {
		t.Errorf("artifact removed: %v", err)
	}
	if got, err := repos.Instance.Get(ctx, "abc"); err != nil || got.ModelID != out.Artifact.ID {
		t.Errorf("instance changed: %+v, %v", got, err)
	}

	if err := repos.Instance.Delete(ctx, "abc"); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Delete(ctx, &DeleteInput{ArtifactID: out.Artifact.ID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := uc.Get(ctx, &GetInput{ArtifactID: out.Artifact.ID}); !errors.Is(err, model.ErrArtifactNotFound) {
		t.Errorf("Get after delete: %v", err)
	}
}
