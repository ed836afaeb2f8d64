package artifact

import "github.com/kompox/modelops/domain"

// Repos holds repositories needed for model artifact use cases.
type Repos struct {
	Workload domain.WorkloadRepository
	Artifact domain.ArtifactRepository
}

// UseCase wires repositories needed for model artifact use cases.
type UseCase struct {
	Repos *Repos
}
