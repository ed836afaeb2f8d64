package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/naming"
)

// InstanceRepository is a thread-safe in-memory implementation.
type InstanceRepository struct{ s *Store }

func (r *InstanceRepository) Create(_ context.Context, in *model.ServiceInstance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if in.ID == "" {
		id, err := naming.NewCompactID()
		if err != nil {
			return fmt.Errorf("generate instance id: %w", err)
		}
		in.ID = id
	}
	now := time.Now()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	if in.UpdatedAt.IsZero() {
		in.UpdatedAt = now
	}
	cp := *in
	r.s.instances[in.ID] = &cp
	return nil
}

func (r *InstanceRepository) Get(_ context.Context, id string) (*model.ServiceInstance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.instances[id]
	if !ok {
		return nil, model.ErrInstanceNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *InstanceRepository) List(_ context.Context, workloadID, level string) ([]*model.ServiceInstance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.ServiceInstance
	for _, v := range r.s.instances {
		if v.WorkloadID == workloadID && (level == "" || v.Level == level) {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InstanceRepository) Update(_ context.Context, in *model.ServiceInstance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.instances[in.ID]; !ok {
		return model.ErrInstanceNotFound
	}
	cp := *in
	cp.UpdatedAt = time.Now()
	r.s.instances[in.ID] = &cp
	return nil
}

func (r *InstanceRepository) Touch(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.instances[id]
	if !ok {
		return model.ErrInstanceNotFound
	}
	v.LiveAt = at
	return nil
}

func (r *InstanceRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.instances[id]; !ok {
		return model.ErrInstanceNotFound
	}
	delete(r.s.instances, id)
	return nil
}

func (r *InstanceRepository) DeleteStale(_ context.Context, workloadID string, before time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []string
	for id, v := range r.s.instances {
		if v.WorkloadID == workloadID && v.LiveAt.Before(before) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		delete(r.s.instances, id)
	}
	return ids, nil
}
