package kube

import "strings"

// Object name prefixes. These names are shared with workloads deployed by
// earlier releases and must not change.
const (
	DeploymentPrefix     = "deploy-"
	ServicePrefix        = "svc-"
	HPAPrefix            = "hpa-"
	VirtualServicePrefix = "ing-vs-"
)

// DeploymentName returns `deploy-<instanceID>`.
func DeploymentName(instanceID string) string { return DeploymentPrefix + instanceID }

// ServiceName returns `svc-<instanceID>`.
func ServiceName(instanceID string) string { return ServicePrefix + instanceID }

// HPAName returns `hpa-<instanceID>`.
func HPAName(instanceID string) string { return HPAPrefix + instanceID }

// VirtualServiceName returns `ing-vs-<workloadID>`.
// The object is shared by every instance of the workload at one service level.
func VirtualServiceName(workloadID string) string { return VirtualServicePrefix + workloadID }

// Namespace returns the namespace holding objects of a service level.
func Namespace(prefix, level string) string { return prefix + strings.ToLower(level) }

// ServiceHost returns the cluster-local DNS name of an instance endpoint.
func ServiceHost(instanceID, namespace string) string {
	return ServiceName(instanceID) + "." + namespace + ".svc.cluster.local"
}

// InstanceIDFromHost extracts the instance ID from a destination host written
// by ServiceHost or a bare `svc-<id>` name. It returns "" for foreign hosts.
func InstanceIDFromHost(host string) string {
	if i := strings.IndexByte(host, '.'); i >= 0 {
		host = host[:i]
	}
	if !strings.HasPrefix(host, ServicePrefix) {
		return ""
	}
	return strings.TrimPrefix(host, ServicePrefix)
}
