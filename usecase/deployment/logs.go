package deployment

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/domain/model"
)

// LogsInput selects the worker logs of an instance.
type LogsInput struct {
	InstanceID string `json:"instanceID"`
	// TargetID limits output to one target; empty reads every target.
	TargetID  string        `json:"targetID,omitempty"`
	TailLines int64         `json:"tailLines,omitempty"`
	Since     time.Duration `json:"since,omitempty"`
	Follow    bool          `json:"follow,omitempty"`
	// Out receives the log lines.
	Out io.Writer `json:"-"`
}

// LogsOutput carries no data; logs are written to LogsInput.Out.
type LogsOutput struct{}

// Logs copies the worker container logs of an instance. Output of each target
// starts with a "==> <target> <==" header. Following is limited to one target.
func (u *UseCase) Logs(ctx context.Context, in *LogsInput) (*LogsOutput, error) {
	if in == nil || in.InstanceID == "" {
		return nil, model.Invalid("instanceID", "is required")
	}
	if in.Out == nil {
		return nil, model.Invalid("out", "is required")
	}
	s, err := u.Repos.Instance.Get(ctx, in.InstanceID)
	if err != nil {
		return nil, err
	}
	w, err := u.Repos.Workload.Get(ctx, s.WorkloadID)
	if err != nil {
		return nil, err
	}
	targets, err := u.targets(ctx, w.ProjectID)
	if err != nil {
		return nil, err
	}
	if in.TargetID != "" {
		var found *model.ClusterTarget
		for _, t := range targets {
			if t.ID == in.TargetID {
				found = t
			}
		}
		if found == nil {
			return nil, fmt.Errorf("target %s: %w", in.TargetID, model.ErrTargetNotFound)
		}
		targets = []*model.ClusterTarget{found}
	}
	if in.Follow && len(targets) > 1 {
		return nil, model.Invalid("targetID", "is required to follow logs of %d targets", len(targets))
	}

	ns := kube.Namespace(u.Manifest.NamespacePrefix, s.Level)
	selector := kube.InstanceSelector(s.WorkloadID, s.ID)
	opts := &kube.LogOptions{TailLines: in.TailLines, Since: in.Since, Follow: in.Follow}
	for _, t := range targets {
		client, err := u.connect(ctx, t)
		if err != nil {
			return nil, err
		}
		if _, err := fmt.Fprintf(in.Out, "==> %s <==\n", t.Name); err != nil {
			return nil, err
		}
		if err := client.WorkerLogs(ctx, ns, selector, opts, in.Out); err != nil {
			return nil, fmt.Errorf("target %s: %w", t.Name, err)
		}
	}
	return &LogsOutput{}, nil
}
