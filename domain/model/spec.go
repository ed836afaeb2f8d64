package model

// DeploySpec is a declarative deployment request for one ServiceInstance.
type DeploySpec struct {
	ProjectID    string
	WorkloadID   string
	WorkloadName string
	InstanceID   string
	Level        string
	Version      string
	// Creating is true for a first deployment. It is only a hint; cluster
	// object existence decides between create and patch.
	Creating bool
	Message  string
	Debug    bool

	Replicas     Replicas
	Rollout      RolloutPolicy
	AutoscaleCPU int32 // target average CPU utilization percent

	Image     string
	Resources Resources
	Port      int32

	Model   ModelRef
	Storage StorageRef
	Boot    BootSource
}

// Replicas holds desired, minimum and maximum replica counts.
type Replicas struct {
	Default int32
	Min     int32
	Max     int32
}

// RolloutPolicy configures rolling updates.
type RolloutPolicy struct {
	MaxSurge        int32
	MaxUnavailable  int32
	MinReadySeconds int32
	// WaitSeconds is the expected time for one replica to become ready.
	WaitSeconds int32
}

// Resources holds container resource quantities such as "500m" or "1Gi".
type Resources struct {
	CPURequest    string
	MemoryRequest string
	CPULimit      string
	MemoryLimit   string
	GPULimit      string
}

// ModelRef identifies the model served by the instance.
type ModelRef struct {
	ArtifactID string
	Path       string
	Version    string
}

// Storage modes for model files.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// StorageRef tells the worker where to fetch model files from.
type StorageRef struct {
	Mode      string
	AccessKey string
	SecretKey string
	Bucket    string
}

// BootSource is forwarded to source-built images.
type BootSource struct {
	GitURL    string
	GitBranch string
	Script    string
}
