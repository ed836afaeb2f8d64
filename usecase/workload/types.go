package workload

import "github.com/kompox/modelops/domain"

// Repos holds repositories needed for workload use cases.
type Repos struct {
	Workload domain.WorkloadRepository
}

// UseCase wires repositories needed for workload use cases.
type UseCase struct {
	Repos *Repos
}
