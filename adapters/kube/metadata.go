package kube

import (
	"k8s.io/apimachinery/pkg/labels"
)

// Discovery label keys set on every object managed by modelops.
// Keep these constants stable; changes are API-visible in clusters.
const (
	LabelWorker   = "worker"
	LabelWorkload = "workload"
	LabelName     = "name"
	LabelInstance = "instance"

	LabelAppK8sManagedBy = "app.kubernetes.io/managed-by"

	ManagedBy = "modelops"

	AnnotationUpdateMessage = "modelops.kompox.dev/update-message"
	AnnotationModelPath     = "modelops.kompox.dev/model-path"
)

// InstanceLabels returns the discovery label set of one instance.
func InstanceLabels(workloadID, workloadName, instanceID string) map[string]string {
	return map[string]string{
		LabelWorker:          "true",
		LabelWorkload:        workloadID,
		LabelName:            workloadName,
		LabelInstance:        instanceID,
		LabelAppK8sManagedBy: ManagedBy,
	}
}

// WorkloadLabels returns labels shared by every instance of a workload.
func WorkloadLabels(workloadID, workloadName string) map[string]string {
	return map[string]string{
		LabelWorker:          "true",
		LabelWorkload:        workloadID,
		LabelName:            workloadName,
		LabelAppK8sManagedBy: ManagedBy,
	}
}

// PodSelector returns the immutable pod selector of an instance.
func PodSelector(workloadID, instanceID string) map[string]string {
	return map[string]string{
		LabelWorkload: workloadID,
		LabelInstance: instanceID,
	}
}

// WorkerSelector returns the label selector string used for discovery.
func WorkerSelector() string {
	return labels.SelectorFromSet(labels.Set{LabelWorker: "true"}).String()
}

// InstanceSelector returns the label selector string matching pods of an instance.
func InstanceSelector(workloadID, instanceID string) string {
	return labels.SelectorFromSet(PodSelector(workloadID, instanceID)).String()
}
