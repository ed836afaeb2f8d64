package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/kompox/modelops/domain/model"
)

// ArtifactRepository is a thread-safe in-memory implementation.
type ArtifactRepository struct{ s *Store }

func (r *ArtifactRepository) Create(_ context.Context, a *model.ModelArtifact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.artifacts {
		if v.WorkloadID == a.WorkloadID && v.Path == a.Path {
			return model.ErrArtifactExists
		}
	}
	if a.ID == "" {
		a.ID = r.s.nextID("art")
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	cp := *a
	r.s.artifacts[a.ID] = &cp
	return nil
}

func (r *ArtifactRepository) Get(_ context.Context, id string) (*model.ModelArtifact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.artifacts[id]
	if !ok {
		return nil, model.ErrArtifactNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *ArtifactRepository) GetByPath(_ context.Context, workloadID, path string) (*model.ModelArtifact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.artifacts {
		if v.WorkloadID == workloadID && v.Path == path {
			cp := *v
			return &cp, nil
		}
	}
	return nil, model.ErrArtifactNotFound
}

func (r *ArtifactRepository) List(_ context.Context, workloadID string) ([]*model.ModelArtifact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.ModelArtifact
	for _, v := range r.s.artifacts {
		if v.WorkloadID == workloadID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *ArtifactRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.artifacts[id]; !ok {
		return model.ErrArtifactNotFound
	}
	for _, v := range r.s.instances {
		if v.ModelID == id {
			return model.ErrArtifactInUse
		}
	}
	delete(r.s.artifacts, id)
	return nil
}
