package workload

import (
	"context"
	"errors"
	"testing"

	"github.com/kompox/modelops/adapters/store/inmem"
	"github.com/kompox/modelops/domain"
	"github.com/kompox/modelops/domain/model"
)

func newUseCase() (*UseCase, *domain.Repositories) {
	repos := inmem.NewStore().Repositories()
	return &UseCase{Repos: &Repos{Workload: repos.Workload}}, repos
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name    string
		in      *CreateInput
		wantErr error
	}{
		{"ok", &CreateInput{ProjectID: "p1", Name: "iris"}, nil},
		{"no project", &CreateInput{Name: "iris"}, model.ErrValidation},
		{"uppercase", &CreateInput{ProjectID: "p1", Name: "Iris"}, model.ErrValidation},
		{"too long", &CreateInput{ProjectID: "p1", Name: "a234567890123456789012345678901234567890x"}, model.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _ := newUseCase()
			out, err := uc.Create(context.Background(), tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || out.Workload.ID == "" {
				t.Fatalf("Create = %+v, %v", out, err)
			}
		})
	}
}

func TestCreateDuplicateName(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase()
	if _, err := uc.Create(ctx, &CreateInput{ProjectID: "p1", Name: "iris"}); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Create(ctx, &CreateInput{ProjectID: "p1", Name: "iris"}); !errors.Is(err, model.ErrWorkloadExists) {
		t.Errorf("want ErrWorkloadExists, got %v", err)
	}
	if _, err := uc.Create(ctx, &CreateInput{ProjectID: "p2", Name: "iris"}); err != nil {
		t.Errorf("same name in another project: %v", err)
	}
}

func TestGetListDelete(t *testing.T) {
	ctx := context.Background()
	uc, repos := newUseCase()
	created, err := uc.Create(ctx, &CreateInput{ProjectID: "p1", Name: "iris"})
	if err != nil {
		t.Fatal(err)
	}
	id := created.Workload.ID

	byName, err := uc.Get(ctx, &GetInput{ProjectID: "p1", Name: "iris"})
	if err != nil || byName.Workload.ID != id {
		t.Fatalf("Get by name = %+v, %v", byName, err)
	}
	if _, err := uc.Get(ctx, &GetInput{ProjectID: "p2", Name: "iris"}); !errors.Is(err, model.ErrWorkloadNotFound) {
		t.Errorf("Get in other project: %v", err)
	}
	list, err := uc.List(ctx, &ListInput{ProjectID: "p1"})
	if err != nil || len(list.Workloads) != 1 {
		t.Fatalf("List = %+v, %v", list, err)
	}

	if err := repos.Instance.Create(ctx, &model.ServiceInstance{ID: "abc", WorkloadID: id, Level: "staging"}); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Delete(ctx, &DeleteInput{WorkloadID: id}); !errors.Is(err, model.ErrReferential) {
		t.Fatalf("Delete with instances: %v", err)
	}
	if err := repos.Instance.Delete(ctx, "abc"); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Delete(ctx, &DeleteInput{WorkloadID: id}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := uc.Get(ctx, &GetInput{WorkloadID: id}); !errors.Is(err, model.ErrWorkloadNotFound) {
		t.Errorf("Get after delete: %v", err)
	}
}
