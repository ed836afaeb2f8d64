package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/logging"
	"github.com/kompox/modelops/internal/metrics"
	appsv1 "k8s.io/api/apps/v1"
)

// SyncInput selects the targets and workloads of one pass.
type SyncInput struct {
	ProjectID string `json:"projectID"`
	// TargetID limits discovery to one target; empty visits every target of
	// the project.
	TargetID string `json:"targetID"`
	// Workloads limits the pass to workload names; empty means all, which
	// also garbage collects workload rows.
	Workloads []string `json:"workloads"`
}

// RowCounts tallies registry writes of one row kind.
type RowCounts struct {
	Inserted  int `json:"inserted"`
	Refreshed int `json:"refreshed"`
	Pruned    int `json:"pruned"`
}

// SyncOutput summarizes a pass.
type SyncOutput struct {
	StartedAt time.Time `json:"startedAt"`
	Workloads RowCounts `json:"workloads"`
	Instances RowCounts `json:"instances"`
	// Artifacts counts auto-discovered model artifacts.
	Artifacts int `json:"artifacts"`
	// Skipped counts Deployments with incomplete discovery data.
	Skipped         int      `json:"skipped"`
	PrunedWorkloads []string `json:"prunedWorkloads,omitempty"`
	PrunedInstances []string `json:"prunedInstances,omitempty"`
}

// pass carries the state of one Sync call.
type pass struct {
	in      *SyncInput
	scope   map[string]bool
	visited map[string]bool
	out     *SyncOutput
}

// Sync lists worker Deployments on the selected targets, registers unknown
// workloads, instances and model artifacts, refreshes the liveness of known
// ones and then deletes rows not observed since the pass started. A
// transport error aborts the pass; rows written before it are kept.
func (u *UseCase) Sync(ctx context.Context, in *SyncInput) (out *SyncOutput, err error) {
	if in == nil || in.ProjectID == "" {
		return nil, model.Invalid("project", "is required")
	}
	wallStart := time.Now()
	ctx, done := logging.Span(ctx, "UC:Sync", "project", in.ProjectID, "target", in.TargetID, "workloads", in.Workloads)
	defer func() { done(err) }()

	p := &pass{
		in:      in,
		visited: map[string]bool{},
		out:     &SyncOutput{StartedAt: u.now()},
	}
	if len(in.Workloads) > 0 {
		p.scope = make(map[string]bool, len(in.Workloads))
		for _, name := range in.Workloads {
			p.scope[name] = true
		}
	}

	targets, err := u.selectTargets(ctx, in)
	if err != nil {
		return nil, err
	}
	for _, t := range targets {
		client, err := u.Connector.Connect(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("connect target %s: %w", t.Name, err)
		}
		deps, err := client.ListDeployments(ctx, "", kube.WorkerSelector())
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", t.Name, err)
		}
		for i := range deps {
			if err := u.observe(ctx, p, &deps[i]); err != nil {
				return nil, fmt.Errorf("target %s: %w", t.Name, err)
			}
		}
	}

	if err := u.collect(ctx, p); err != nil {
		return nil, err
	}

	o := p.out
	u.Metrics.ReconcileRows("workload", metrics.RowInserted, o.Workloads.Inserted)
	u.Metrics.ReconcileRows("workload", metrics.RowRefreshed, o.Workloads.Refreshed)
	u.Metrics.ReconcileRows("workload", metrics.RowPruned, o.Workloads.Pruned)
	u.Metrics.ReconcileRows("instance", metrics.RowInserted, o.Instances.Inserted)
	u.Metrics.ReconcileRows("instance", metrics.RowRefreshed, o.Instances.Refreshed)
	u.Metrics.ReconcileRows("instance", metrics.RowPruned, o.Instances.Pruned)
	u.Metrics.ReconcileRows("artifact", metrics.RowInserted, o.Artifacts)
	u.Metrics.ObserveSince("sync", wallStart)
	return o, nil
}

func (u *UseCase) selectTargets(ctx context.Context, in *SyncInput) ([]*model.ClusterTarget, error) {
	if in.TargetID == "" {
		targets, err := u.Repos.Target.List(ctx, in.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("list cluster targets: %w", err)
		}
		return targets, nil
	}
	t, err := u.Repos.Target.Get(ctx, in.TargetID)
	if err != nil {
		return nil, err
	}
	if t.ProjectID != in.ProjectID {
		return nil, fmt.Errorf("target %s is not in project %q: %w", t.ID, in.ProjectID, model.ErrTargetNotFound)
	}
	return []*model.ClusterTarget{t}, nil
}

// observe registers or refreshes the rows behind one Deployment.
func (u *UseCase) observe(ctx context.Context, p *pass, d *appsv1.Deployment) error {
	logger := logging.FromContext(ctx)
	workloadID := d.Labels[kube.LabelWorkload]
	name := d.Labels[kube.LabelName]
	instanceID := d.Labels[kube.LabelInstance]
	worker, ok := kube.ReadWorkerEnv(d.Spec.Template.Spec.Containers)
	reason := ""
	switch {
	case workloadID == "" || name == "" || instanceID == "" || !ok || worker.Level == "":
		reason = "incomplete labels"
	case worker.InstanceID != instanceID:
		reason = "instance label does not match " + kube.EnvServiceID
	}
	if reason != "" {
		logger.Info(ctx, "UC:Sync:skip", "ns", d.Namespace, "name", d.Name, "reason", reason)
		p.out.Skipped++
		return nil
	}
	if p.scope != nil && !p.scope[name] {
		return nil
	}

	ok, err := u.observeWorkload(ctx, p, workloadID, name)
	if err != nil || !ok {
		return err
	}
	p.visited[workloadID] = true

	now := u.now()
	_, err = u.Repos.Instance.Get(ctx, instanceID)
	switch {
	case err == nil:
		if err := u.Repos.Instance.Touch(ctx, instanceID, now); err != nil {
			return fmt.Errorf("touch service instance %s: %w", instanceID, err)
		}
		p.out.Instances.Refreshed++
		return nil
	case !errors.Is(err, model.ErrInstanceNotFound):
		return err
	}

	s := &model.ServiceInstance{
		ID:         instanceID,
		WorkloadID: workloadID,
		Level:      worker.Level,
		Version:    worker.Version,
		Host:       worker.Host,
		Port:       worker.Port,
		LiveAt:     now,
	}
	for _, c := range d.Spec.Template.Spec.Containers {
		if c.Name == kube.WorkerContainerName {
			s.Image = c.Image
		}
	}
	if worker.ModelPath != "" {
		a, err := u.discoverArtifact(ctx, p, workloadID, worker.ModelPath)
		if err != nil {
			return err
		}
		s.ModelID = a.ID
	}
	if err := u.Repos.Instance.Create(ctx, s); err != nil {
		return fmt.Errorf("create service instance %s: %w", instanceID, err)
	}
	p.out.Instances.Inserted++
	logger.Info(ctx, "UC:Sync:instance", "instance", instanceID, "workload", workloadID, "level", worker.Level)
	return nil
}

// observeWorkload inserts the workload on first sight or refreshes it. It
// reports false for Deployments whose workload row belongs to another
// project or whose name is registered under another ID.
func (u *UseCase) observeWorkload(ctx context.Context, p *pass, id, name string) (bool, error) {
	logger := logging.FromContext(ctx)
	now := u.now()
	w, err := u.Repos.Workload.Get(ctx, id)
	if err == nil {
		if w.ProjectID != p.in.ProjectID {
			logger.Info(ctx, "UC:Sync:skip", "workload", id, "reason", "other project")
			return false, nil
		}
		if err := u.Repos.Workload.Touch(ctx, id, now); err != nil {
			return false, fmt.Errorf("touch workload %s: %w", id, err)
		}
		if !p.visited[id] {
			p.out.Workloads.Refreshed++
		}
		return true, nil
	}
	if !errors.Is(err, model.ErrWorkloadNotFound) {
		return false, err
	}
	w = &model.Workload{ID: id, ProjectID: p.in.ProjectID, Name: name, Description: model.DescriptionAutoDiscovered, LiveAt: now}
	if err := u.Repos.Workload.Create(ctx, w); err != nil {
		if errors.Is(err, model.ErrWorkloadExists) {
			logger.Info(ctx, "UC:Sync:skip", "workload", id, "name", name, "reason", "name registered under another id")
			return false, nil
		}
		return false, fmt.Errorf("create workload %s: %w", id, err)
	}
	p.out.Workloads.Inserted++
	logger.Info(ctx, "UC:Sync:workload", "workload", id, "name", name)
	return true, nil
}

func (u *UseCase) discoverArtifact(ctx context.Context, p *pass, workloadID, path string) (*model.ModelArtifact, error) {
	a, err := u.Repos.Artifact.GetByPath(ctx, workloadID, path)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, model.ErrArtifactNotFound) {
		return nil, err
	}
	a = &model.ModelArtifact{WorkloadID: workloadID, Path: path, Description: model.DescriptionAutoDiscovered}
	if err := u.Repos.Artifact.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create model artifact %s: %w", path, err)
	}
	p.out.Artifacts++
	return a, nil
}

// collect deletes instance rows of in-scope workloads and, for full passes,
// workload rows whose liveness predates the pass start.
func (u *UseCase) collect(ctx context.Context, p *pass) error {
	start := p.out.StartedAt
	ids := make([]string, 0, len(p.visited))
	seen := map[string]bool{}
	for id := range p.visited {
		ids = append(ids, id)
		seen[id] = true
	}
	registered, err := u.Repos.Workload.List(ctx, p.in.ProjectID)
	if err != nil {
		return fmt.Errorf("list workloads: %w", err)
	}
	for _, w := range registered {
		if seen[w.ID] || (p.scope != nil && !p.scope[w.Name]) {
			continue
		}
		ids = append(ids, w.ID)
	}

	for _, id := range ids {
		pruned, err := u.Repos.Instance.DeleteStale(ctx, id, start)
		if err != nil {
			return fmt.Errorf("prune service instances of %s: %w", id, err)
		}
		p.out.Instances.Pruned += len(pruned)
		p.out.PrunedInstances = append(p.out.PrunedInstances, pruned...)
	}
	if p.scope != nil {
		return nil
	}
	pruned, err := u.Repos.Workload.DeleteStale(ctx, p.in.ProjectID, start)
	if err != nil {
		return fmt.Errorf("prune workloads: %w", err)
	}
	p.out.Workloads.Pruned = len(pruned)
	p.out.PrunedWorkloads = pruned
	return nil
}
