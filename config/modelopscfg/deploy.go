package modelopscfg

import (
	"os"

	"github.com/kompox/modelops/domain/model"
)

// Deploy is a deploy request document.
type Deploy struct {
	Workload     string    `yaml:"workload"`
	Level        string    `yaml:"level"`
	Version      string    `yaml:"version"`
	Instance     string    `yaml:"instance,omitempty"` // empty creates a new instance
	Message      string    `yaml:"message,omitempty"`
	Debug        bool      `yaml:"debug,omitempty"`
	Image        string    `yaml:"image"`
	Port         int32     `yaml:"port"`
	Replicas     Replicas  `yaml:"replicas"`
	AutoscaleCPU int32     `yaml:"autoscaleCPU,omitempty"`
	Rollout      *Rollout  `yaml:"rollout,omitempty"`
	Resources    Resources `yaml:"resources,omitempty"`
	Model        Model     `yaml:"model,omitempty"`
	Storage      Storage   `yaml:"storage,omitempty"`
	Boot         Boot      `yaml:"boot,omitempty"`
}

type Replicas struct {
	Default int32 `yaml:"default"`
	Min     int32 `yaml:"min"`
	Max     int32 `yaml:"max"`
}

type Rollout struct {
	MaxSurge        int32 `yaml:"maxSurge"`
	MaxUnavailable  int32 `yaml:"maxUnavailable"`
	MinReadySeconds int32 `yaml:"minReadySeconds"`
	WaitSeconds     int32 `yaml:"waitSeconds"`
}

type Resources struct {
	CPURequest    string `yaml:"cpuRequest,omitempty"`
	MemoryRequest string `yaml:"memoryRequest,omitempty"`
	CPULimit      string `yaml:"cpuLimit,omitempty"`
	MemoryLimit   string `yaml:"memoryLimit,omitempty"`
	GPULimit      string `yaml:"gpuLimit,omitempty"`
}

type Model struct {
	Artifact string `yaml:"artifact,omitempty"`
	Path     string `yaml:"path,omitempty"`
	Version  string `yaml:"version,omitempty"`
}

// Storage key fields are expanded with os.ExpandEnv so documents can refer
// to secrets held in the environment.
type Storage struct {
	Mode      string `yaml:"mode,omitempty"`
	AccessKey string `yaml:"accessKey,omitempty"`
	SecretKey string `yaml:"secretKey,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
}

type Boot struct {
	GitURL    string `yaml:"gitURL,omitempty"`
	GitBranch string `yaml:"gitBranch,omitempty"`
	Script    string `yaml:"script,omitempty"`
}

// Defaults applied by ToSpec.
const (
	DefaultAutoscaleCPU = 80
	DefaultWaitSeconds  = 60
)

// ToSpec converts the document into a deploy spec of projectID. Omitted
// replica counts fall back to one another, an omitted rollout block becomes
// one surge replica with DefaultWaitSeconds; the result is validated by the
// manifest builder.
func (d *Deploy) ToSpec(projectID string) model.DeploySpec {
	r := d.Replicas
	if r.Default == 0 {
		r.Default = max(r.Min, 1)
	}
	if r.Min == 0 {
		r.Min = min(r.Default, max(r.Max, 1))
	}
	if r.Max == 0 {
		r.Max = max(r.Default, r.Min)
	}
	rollout := model.RolloutPolicy{MaxSurge: 1, WaitSeconds: DefaultWaitSeconds}
	if d.Rollout != nil {
		rollout = model.RolloutPolicy{
			MaxSurge:        d.Rollout.MaxSurge,
			MaxUnavailable:  d.Rollout.MaxUnavailable,
			MinReadySeconds: d.Rollout.MinReadySeconds,
			WaitSeconds:     d.Rollout.WaitSeconds,
		}
		if rollout.WaitSeconds == 0 {
			rollout.WaitSeconds = DefaultWaitSeconds
		}
	}
	cpu := d.AutoscaleCPU
	if cpu == 0 {
		cpu = DefaultAutoscaleCPU
	}
	return model.DeploySpec{
		ProjectID:    projectID,
		WorkloadName: d.Workload,
		InstanceID:   d.Instance,
		Level:        d.Level,
		Version:      d.Version,
		Message:      d.Message,
		Debug:        d.Debug,
		Replicas:     model.Replicas{Default: r.Default, Min: r.Min, Max: r.Max},
		Rollout:      rollout,
		AutoscaleCPU: cpu,
		Image:        d.Image,
		Resources: model.Resources{
			CPURequest:    d.Resources.CPURequest,
			MemoryRequest: d.Resources.MemoryRequest,
			CPULimit:      d.Resources.CPULimit,
			MemoryLimit:   d.Resources.MemoryLimit,
			GPULimit:      d.Resources.GPULimit,
		},
		Port:  d.Port,
		Model: model.ModelRef{ArtifactID: d.Model.Artifact, Path: d.Model.Path, Version: d.Model.Version},
		Storage: model.StorageRef{
			Mode:      d.Storage.Mode,
			AccessKey: os.ExpandEnv(d.Storage.AccessKey),
			SecretKey: os.ExpandEnv(d.Storage.SecretKey),
			Bucket:    d.Storage.Bucket,
		},
		Boot: model.BootSource{GitURL: d.Boot.GitURL, GitBranch: d.Boot.GitBranch, Script: d.Boot.Script},
	}
}
