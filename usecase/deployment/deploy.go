package deployment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/logging"
	"github.com/kompox/modelops/internal/naming"
	"golang.org/x/sync/errgroup"
)

// DeployInput is the input of Deploy.
type DeployInput struct {
	// Spec describes the instance. WorkloadID and Creating are derived;
	// an empty InstanceID creates a new instance.
	Spec model.DeploySpec
	// DryRun builds and renders the manifests without cluster or registry writes.
	DryRun bool
}

// TargetResult is the apply report of one cluster target.
type TargetResult struct {
	TargetID string          `json:"targetID"`
	Objects  []AppliedObject `json:"objects"`
}

// DeployOutput is the outcome of Deploy.
type DeployOutput struct {
	WorkloadID string `json:"workloadID"`
	InstanceID string `json:"instanceID"`
	// Created is true when the instance row did not exist before.
	Created          bool           `json:"created"`
	ProgressDeadline int32          `json:"progressDeadline"`
	Targets          []TargetResult `json:"targets,omitempty"`
	// Rendered holds the manifests as YAML on dry runs.
	Rendered string `json:"rendered,omitempty"`
}

// plan is everything Deploy resolved before touching a cluster.
type plan struct {
	workload    *model.Workload
	newWorkload bool
	instance    *model.ServiceInstance
	newInstance bool
	artifact    *model.ModelArtifact
	newArtifact bool
	spec        model.DeploySpec
}

// Deploy resolves the workload, instance and model artifact of spec, builds
// the manifests and applies them to every cluster target of the project.
// Registry rows are written only after all targets accepted the manifests.
func (u *UseCase) Deploy(ctx context.Context, in *DeployInput) (out *DeployOutput, err error) {
	if in == nil {
		return nil, model.Invalid("spec", "is required")
	}
	start := time.Now()
	ctx, done := logging.Span(ctx, "UC:Deploy", "project", in.Spec.ProjectID, "workload", in.Spec.WorkloadName, "level", in.Spec.Level)
	defer func() { done(err) }()

	p, err := u.plan(ctx, in.Spec)
	if err != nil {
		return nil, err
	}
	m, err := kube.BuildManifests(&p.spec, u.Manifest)
	if err != nil {
		return nil, err
	}
	out = &DeployOutput{
		WorkloadID:       p.workload.ID,
		InstanceID:       p.instance.ID,
		Created:          p.newInstance,
		ProgressDeadline: m.ProgressDeadline,
	}
	if in.DryRun {
		if out.Rendered, err = m.Render(); err != nil {
			return nil, fmt.Errorf("render manifests: %w", err)
		}
		return out, nil
	}

	targets, err := u.targets(ctx, p.spec.ProjectID)
	if err != nil {
		return nil, err
	}
	out.Targets = make([]TargetResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			client, err := u.connect(gctx, t)
			if err != nil {
				return err
			}
			objs, err := u.apply(gctx, client, m)
			if err != nil {
				return fmt.Errorf("target %s: %w", t.Name, err)
			}
			out.Targets[i] = TargetResult{TargetID: t.ID, Objects: objs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := u.record(ctx, p, m.Namespace); err != nil {
		return nil, err
	}
	u.Metrics.ObserveSince("deploy", start)
	return out, nil
}

func (u *UseCase) plan(ctx context.Context, spec model.DeploySpec) (*plan, error) {
	if spec.ProjectID == "" {
		return nil, model.Invalid("project", "is required")
	}
	if err := naming.ValidateWorkloadName(spec.WorkloadName); err != nil {
		return nil, model.Invalid("workloadName", "%v", err)
	}
	if err := naming.ValidateLevel(spec.Level); err != nil {
		return nil, model.Invalid("level", "%v", err)
	}
	if spec.Version != "" {
		if err := naming.ValidateVersion(spec.Version); err != nil {
			return nil, model.Invalid("version", "%v", err)
		}
	}
	p := &plan{spec: spec}

	w, err := u.Repos.Workload.GetByName(ctx, spec.ProjectID, spec.WorkloadName)
	switch {
	case err == nil:
		p.workload = w
	case errors.Is(err, model.ErrWorkloadNotFound):
		p.workload = &model.Workload{ID: "wl-" + uuid.NewString(), ProjectID: spec.ProjectID, Name: spec.WorkloadName}
		p.newWorkload = true
	default:
		return nil, err
	}
	p.spec.WorkloadID = p.workload.ID

	if spec.InstanceID == "" {
		id, err := naming.NewCompactID()
		if err != nil {
			return nil, fmt.Errorf("generate instance id: %w", err)
		}
		p.instance = &model.ServiceInstance{ID: id}
		p.newInstance = true
	} else {
		s, err := u.Repos.Instance.Get(ctx, spec.InstanceID)
		switch {
		case err == nil:
			if s.WorkloadID != p.workload.ID || s.Level != spec.Level {
				return nil, model.Invalid("instanceID", "%s belongs to another workload or level", s.ID)
			}
			p.instance = s
		case errors.Is(err, model.ErrInstanceNotFound):
			p.instance = &model.ServiceInstance{ID: spec.InstanceID}
			p.newInstance = true
		default:
			return nil, err
		}
	}
	p.spec.InstanceID = p.instance.ID
	p.spec.Creating = p.newInstance

	if err := u.resolveArtifact(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// resolveArtifact looks the model up by ID or by path. Unknown paths become
// new artifacts; an empty model reference leaves the instance unassigned.
func (u *UseCase) resolveArtifact(ctx context.Context, p *plan) error {
	ref := p.spec.Model
	switch {
	case ref.ArtifactID != "":
		a, err := u.Repos.Artifact.Get(ctx, ref.ArtifactID)
		if err != nil {
			return err
		}
		if a.WorkloadID != p.workload.ID {
			return model.Invalid("model.artifactID", "%s belongs to another workload", a.ID)
		}
		p.artifact = a
	case ref.Path != "":
		if !p.newWorkload {
			a, err := u.Repos.Artifact.GetByPath(ctx, p.workload.ID, ref.Path)
			if err == nil {
				p.artifact = a
				break
			}
			if !errors.Is(err, model.ErrArtifactNotFound) {
				return err
			}
		}
		p.artifact = &model.ModelArtifact{WorkloadID: p.workload.ID, Path: ref.Path, Version: ref.Version}
		p.newArtifact = true
	default:
		return nil
	}
	p.spec.Model.ArtifactID = p.artifact.ID
	p.spec.Model.Path = p.artifact.Path
	if p.spec.Model.Version == "" {
		p.spec.Model.Version = p.artifact.Version
	}
	return nil
}

// record upserts the workload, artifact and instance rows after a
// successful apply and marks them live.
func (u *UseCase) record(ctx context.Context, p *plan, namespace string) error {
	now := u.now()
	w := p.workload
	if p.newWorkload {
		w.LiveAt = now
		if err := u.Repos.Workload.Create(ctx, w); err != nil {
			return fmt.Errorf("create workload: %w", err)
		}
	} else if err := u.Repos.Workload.Touch(ctx, w.ID, now); err != nil {
		return fmt.Errorf("touch workload: %w", err)
	}

	if p.newArtifact {
		if p.spec.Message != "" {
			p.artifact.Description = p.spec.Message
		}
		if err := u.Repos.Artifact.Create(ctx, p.artifact); err != nil {
			return fmt.Errorf("create model artifact: %w", err)
		}
	}

	s := p.instance
	s.WorkloadID = w.ID
	s.Level = p.spec.Level
	s.Version = p.spec.Version
	s.Image = p.spec.Image
	s.Host = kube.ServiceHost(s.ID, namespace)
	s.Port = int(p.spec.Port)
	s.LiveAt = now
	if p.artifact != nil {
		s.ModelID = p.artifact.ID
	}
	if p.newInstance {
		if err := u.Repos.Instance.Create(ctx, s); err != nil {
			return fmt.Errorf("create service instance: %w", err)
		}
		return nil
	}
	if err := u.Repos.Instance.Update(ctx, s); err != nil {
		return fmt.Errorf("update service instance: %w", err)
	}
	return nil
}
