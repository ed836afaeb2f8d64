package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/kompox/modelops/domain/model"
)

// WorkloadRepository is a thread-safe in-memory implementation.
type WorkloadRepository struct{ s *Store }

func (r *WorkloadRepository) Create(_ context.Context, w *model.Workload) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.workloads {
		if v.ProjectID == w.ProjectID && v.Name == w.Name {
			return model.ErrWorkloadExists
		}
	}
	if w.ID == "" {
		w.ID = r.s.nextID("wl")
	}
	now := time.Now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = now
	}
	cp := *w
	r.s.workloads[w.ID] = &cp
	return nil
}

func (r *WorkloadRepository) Get(_ context.Context, id string) (*model.Workload, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.workloads[id]
	if !ok {
		return nil, model.ErrWorkloadNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *WorkloadRepository) GetByName(_ context.Context, projectID, name string) (*model.Workload, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.workloads {
		if v.ProjectID == projectID && v.Name == name {
			cp := *v
			return &cp, nil
		}
	}
	return nil, model.ErrWorkloadNotFound
}

func (r *WorkloadRepository) List(_ context.Context, projectID string) ([]*model.Workload, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.Workload, 0, len(r.s.workloads))
	for _, v := range r.s.workloads {
		if v.ProjectID == projectID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *WorkloadRepository) Touch(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.workloads[id]
	if !ok {
		return model.ErrWorkloadNotFound
	}
	v.LiveAt = at
	return nil
}

func (r *WorkloadRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.workloads[id]; !ok {
		return model.ErrWorkloadNotFound
	}
	for _, v := range r.s.instances {
		if v.WorkloadID == id {
			return model.ErrWorkloadInUse
		}
	}
	r.s.deleteWorkloadLocked(id)
	return nil
}

func (r *WorkloadRepository) DeleteStale(_ context.Context, projectID string, before time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var stale []*model.Workload
	for _, v := range r.s.workloads {
		if v.ProjectID == projectID && v.LiveAt.Before(before) {
			stale = append(stale, v)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	ids := make([]string, 0, len(stale))
	for _, v := range stale {
		r.s.deleteWorkloadLocked(v.ID)
		ids = append(ids, v.ID)
	}
	return ids, nil
}

// deleteWorkloadLocked removes a workload with its instances and artifacts.
func (s *Store) deleteWorkloadLocked(id string) {
	for k, v := range s.instances {
		if v.WorkloadID == id {
			delete(s.instances, k)
		}
	}
	for k, v := range s.artifacts {
		if v.WorkloadID == id {
			delete(s.artifacts, k)
		}
	}
	delete(s.workloads, id)
}
