package inmem

import (
	"fmt"
	"sync"

	"github.com/kompox/modelops/domain"
	"github.com/kompox/modelops/domain/model"
)

// Store keeps every aggregate in maps guarded by one mutex so that
// referential checks and the writes they guard are atomic.
type Store struct {
	mu        sync.RWMutex
	seq       int64
	targets   map[string]*model.ClusterTarget
	workloads map[string]*model.Workload
	instances map[string]*model.ServiceInstance
	artifacts map[string]*model.ModelArtifact

	TargetRepo   *TargetRepository
	WorkloadRepo *WorkloadRepository
	InstanceRepo *InstanceRepository
	ArtifactRepo *ArtifactRepository
}

// NewStore creates a new in-memory store with all repositories.
func NewStore() *Store {
	s := &Store{
		targets:   make(map[string]*model.ClusterTarget),
		workloads: make(map[string]*model.Workload),
		instances: make(map[string]*model.ServiceInstance),
		artifacts: make(map[string]*model.ModelArtifact),
	}
	s.TargetRepo = &TargetRepository{s: s}
	s.WorkloadRepo = &WorkloadRepository{s: s}
	s.InstanceRepo = &InstanceRepository{s: s}
	s.ArtifactRepo = &ArtifactRepository{s: s}
	return s
}

// Repositories returns the repositories as a domain.Repositories.
func (s *Store) Repositories() *domain.Repositories {
	return &domain.Repositories{
		Target:   s.TargetRepo,
		Workload: s.WorkloadRepo,
		Instance: s.InstanceRepo,
		Artifact: s.ArtifactRepo,
	}
}

// nextID must be called with mu held.
func (s *Store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// Compile-time assertions
var _ domain.TargetRepository = (*TargetRepository)(nil)
var _ domain.WorkloadRepository = (*WorkloadRepository)(nil)
var _ domain.InstanceRepository = (*InstanceRepository)(nil)
var _ domain.ArtifactRepository = (*ArtifactRepository)(nil)
