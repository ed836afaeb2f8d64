package kube

import (
	"strconv"

	"github.com/kompox/modelops/domain/model"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
)

// Environment contract between modelops and the serving worker. The worker
// reads these at boot; reconciliation reads them back from live Deployments.
const (
	EnvUpdateMessage   = "UPDATE_MESSAGE"
	EnvKubernetesMode  = "KUBERNETES_MODE"
	EnvDebug           = "DEBUG"
	EnvApplicationName = "APPLICATION_NAME"
	EnvHost            = "HOST"
	EnvPort            = "PORT"
	EnvServiceID       = "SERVICE_ID"
	EnvServiceLevel    = "SERVICE_LEVEL"
	EnvProtocolVersion = "PROTOCOL_VERSION"
	EnvStorageMode     = "STORAGE_MODE"
	EnvModelFilePath   = "MODEL_FILE_PATH"
	EnvAccessKey       = "AWS_ACCESS_KEY_ID"
	EnvSecretKey       = "AWS_SECRET_ACCESS_KEY"
	EnvBucketName      = "BUCKET_NAME"
	EnvGitURL          = "GIT_URL"
	EnvGitBranch       = "GIT_BRANCH"
	EnvBootScript      = "BOOT_SCRIPT"
)

// WorkerEnv builds the container environment of an instance in a fixed order.
// Object storage keys and git boot settings are only emitted when set.
func WorkerEnv(spec *model.DeploySpec, namespace string) []corev1.EnvVar {
	storage := spec.Storage.Mode
	if storage == "" {
		storage = model.StorageLocal
	}
	env := []corev1.EnvVar{
		{Name: EnvUpdateMessage, Value: spec.Message},
		{Name: EnvKubernetesMode, Value: "true"},
		{Name: EnvDebug, Value: strconv.FormatBool(spec.Debug)},
		{Name: EnvApplicationName, Value: spec.WorkloadName},
		{Name: EnvHost, Value: ServiceHost(spec.InstanceID, namespace)},
		{Name: EnvPort, Value: strconv.Itoa(int(spec.Port))},
		{Name: EnvServiceID, Value: spec.InstanceID},
		{Name: EnvServiceLevel, Value: spec.Level},
		{Name: EnvProtocolVersion, Value: spec.Version},
		{Name: EnvStorageMode, Value: storage},
		{Name: EnvModelFilePath, Value: spec.Model.Path},
	}
	if storage == model.StorageS3 {
		env = append(env,
			corev1.EnvVar{Name: EnvAccessKey, Value: spec.Storage.AccessKey},
			corev1.EnvVar{Name: EnvSecretKey, Value: spec.Storage.SecretKey},
			corev1.EnvVar{Name: EnvBucketName, Value: spec.Storage.Bucket},
		)
	}
	if spec.Boot.GitURL != "" {
		env = append(env,
			corev1.EnvVar{Name: EnvGitURL, Value: spec.Boot.GitURL},
			corev1.EnvVar{Name: EnvGitBranch, Value: spec.Boot.GitBranch},
			corev1.EnvVar{Name: EnvBootScript, Value: spec.Boot.Script},
		)
	}
	return env
}

// DiscoveredWorker is the part of the environment contract reconciliation needs.
type DiscoveredWorker struct {
	InstanceID string
	Level      string
	Version    string
	Host       string
	Port       int
	ModelPath  string
}

// ReadWorkerEnv extracts the worker contract from the first container that
// carries SERVICE_ID. Literal values only; valueFrom references are ignored.
func ReadWorkerEnv(containers []corev1.Container) (DiscoveredWorker, bool) {
	for _, c := range containers {
		vals := make(map[string]string, len(c.Env))
		for _, e := range c.Env {
			vals[e.Name] = e.Value
		}
		id, ok := vals[EnvServiceID]
		if !ok {
			continue
		}
		port, _ := strconv.Atoi(vals[EnvPort])
		return DiscoveredWorker{
			InstanceID: id,
			Level:      vals[EnvServiceLevel],
			Version:    vals[EnvProtocolVersion],
			Host:       vals[EnvHost],
			Port:       port,
			ModelPath:  vals[EnvModelFilePath],
		}, true
	}
	return DiscoveredWorker{}, false
}

// SetModelPath points the worker container of dep at a new model file and
// records it in the pod template annotations. It reports false when dep has
// no worker container.
func SetModelPath(dep *appsv1.Deployment, path string) bool {
	containers := dep.Spec.Template.Spec.Containers
	for i := range containers {
		if containers[i].Name != WorkerContainerName {
			continue
		}
		found := false
		for j := range containers[i].Env {
			if containers[i].Env[j].Name == EnvModelFilePath {
				containers[i].Env[j].Value = path
				found = true
			}
		}
		if !found {
			containers[i].Env = append(containers[i].Env, corev1.EnvVar{Name: EnvModelFilePath, Value: path})
		}
		if dep.Spec.Template.Annotations == nil {
			dep.Spec.Template.Annotations = map[string]string{}
		}
		dep.Spec.Template.Annotations[AnnotationModelPath] = path
		return true
	}
	return false
}
