package inmem

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/kompox/modelops/domain/model"
)

// TargetRepository is a thread-safe in-memory implementation.
type TargetRepository struct{ s *Store }

func copyTarget(t *model.ClusterTarget) *model.ClusterTarget {
	cp := *t
	cp.Settings = maps.Clone(t.Settings)
	return &cp
}

func (r *TargetRepository) Create(_ context.Context, t *model.ClusterTarget) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.targets {
		if v.ProjectID == t.ProjectID && v.Name == t.Name {
			return fmt.Errorf("%w: name %q already registered", model.ErrTargetInvalid, t.Name)
		}
	}
	if t.ID == "" {
		t.ID = r.s.nextID("tgt")
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	r.s.targets[t.ID] = copyTarget(t)
	return nil
}

func (r *TargetRepository) Get(_ context.Context, id string) (*model.ClusterTarget, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.targets[id]
	if !ok {
		return nil, model.ErrTargetNotFound
	}
	return copyTarget(v), nil
}

func (r *TargetRepository) List(_ context.Context, projectID string) ([]*model.ClusterTarget, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.ClusterTarget, 0, len(r.s.targets))
	for _, v := range r.s.targets {
		if v.ProjectID == projectID {
			out = append(out, copyTarget(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *TargetRepository) Update(_ context.Context, t *model.ClusterTarget) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.targets[t.ID]; !ok {
		return model.ErrTargetNotFound
	}
	r.s.targets[t.ID] = copyTarget(t)
	return nil
}

func (r *TargetRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.targets[id]; !ok {
		return model.ErrTargetNotFound
	}
	delete(r.s.targets, id)
	return nil
}
