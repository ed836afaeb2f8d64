package kube

import (
	"fmt"

	"github.com/kompox/modelops/domain/model"
	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/utils/ptr"
)

// RolloutRetries bounds the rollout window computed by ProgressDeadline.
const RolloutRetries = 5

// WorkerContainerName is the container name of the serving worker.
const WorkerContainerName = "worker"

// ManifestOptions carries cluster-wide settings applied to every manifest.
type ManifestOptions struct {
	// NamespacePrefix is prepended to the service level to form the namespace.
	NamespacePrefix string
	// Gateways lists Istio gateways bound to the ingress rule.
	Gateways []string
	// Hosts lists hosts matched by the ingress rule; defaults to "*".
	Hosts []string
}

// Manifests is the object set of one instance.
type Manifests struct {
	// WorkloadID and Level key the lock guarding the shared traffic rule.
	WorkloadID     string
	Level          string
	Namespace      string
	Deployment     *appsv1.Deployment
	Service        *corev1.Service
	HPA            *autoscalingv2.HorizontalPodAutoscaler
	VirtualService *VirtualService
	// ProgressDeadline is the Deployment progress deadline in seconds.
	ProgressDeadline int32
}

// Objects returns the typed objects in apply order, with GVK set, for rendering.
func (m *Manifests) Objects() []runtime.Object {
	m.Deployment.SetGroupVersionKind(appsv1.SchemeGroupVersion.WithKind("Deployment"))
	m.Service.SetGroupVersionKind(corev1.SchemeGroupVersion.WithKind("Service"))
	m.HPA.SetGroupVersionKind(autoscalingv2.SchemeGroupVersion.WithKind("HorizontalPodAutoscaler"))
	return []runtime.Object{m.Deployment, m.Service, m.HPA, m.VirtualService.ToUnstructured()}
}

// ProgressDeadline returns retries*wait*maxReplicas/(maxSurge+maxUnavailable).
func ProgressDeadline(waitSeconds, maxReplicas, maxSurge, maxUnavailable int32) (int32, error) {
	if waitSeconds <= 0 {
		return 0, model.Invalid("rollout.waitSeconds", "must be positive")
	}
	if maxReplicas <= 0 {
		return 0, model.Invalid("replicas.max", "must be positive")
	}
	if maxSurge < 0 || maxUnavailable < 0 {
		return 0, model.Invalid("rollout", "maxSurge and maxUnavailable must not be negative")
	}
	step := int64(maxSurge) + int64(maxUnavailable)
	if step == 0 {
		return 0, model.Invalid("rollout", "maxSurge + maxUnavailable must not be zero")
	}
	d := int64(RolloutRetries) * int64(waitSeconds) * int64(maxReplicas) / step
	if d > int64(^uint32(0)>>1) {
		return 0, model.Invalid("rollout", "progress deadline overflows")
	}
	return int32(d), nil
}

// BuildManifests produces the object set for spec. It performs no I/O.
func BuildManifests(spec *model.DeploySpec, opts ManifestOptions) (*Manifests, error) {
	if spec == nil {
		return nil, model.Invalid("spec", "is required")
	}
	if err := validateSpec(spec); err != nil {
		return nil, err
	}
	deadline, err := ProgressDeadline(spec.Rollout.WaitSeconds, spec.Replicas.Max, spec.Rollout.MaxSurge, spec.Rollout.MaxUnavailable)
	if err != nil {
		return nil, err
	}
	if deadline <= spec.Rollout.MinReadySeconds {
		return nil, model.Invalid("rollout.minReadySeconds", "must be less than the progress deadline %d", deadline)
	}
	resources, err := resourceRequirements(spec.Resources)
	if err != nil {
		return nil, err
	}

	ns := Namespace(opts.NamespacePrefix, spec.Level)
	lbls := InstanceLabels(spec.WorkloadID, spec.WorkloadName, spec.InstanceID)
	meta := func(name string) metav1.ObjectMeta {
		return metav1.ObjectMeta{Name: name, Namespace: ns, Labels: copyLabels(lbls)}
	}

	dep := &appsv1.Deployment{
		ObjectMeta: meta(DeploymentName(spec.InstanceID)),
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(spec.Replicas.Default),
			Selector: &metav1.LabelSelector{MatchLabels: PodSelector(spec.WorkloadID, spec.InstanceID)},
			Strategy: appsv1.DeploymentStrategy{
				Type: appsv1.RollingUpdateDeploymentStrategyType,
				RollingUpdate: &appsv1.RollingUpdateDeployment{
					MaxSurge:       ptr.To(intstr.FromInt32(spec.Rollout.MaxSurge)),
					MaxUnavailable: ptr.To(intstr.FromInt32(spec.Rollout.MaxUnavailable)),
				},
			},
			MinReadySeconds:         spec.Rollout.MinReadySeconds,
			ProgressDeadlineSeconds: ptr.To(deadline),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: copyLabels(lbls),
					Annotations: map[string]string{
						AnnotationUpdateMessage: spec.Message,
						AnnotationModelPath:     spec.Model.Path,
					},
				},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{
						Name:            WorkerContainerName,
						Image:           spec.Image,
						ImagePullPolicy: corev1.PullIfNotPresent,
						Ports:           []corev1.ContainerPort{{Name: "http", ContainerPort: spec.Port, Protocol: corev1.ProtocolTCP}},
						Env:             WorkerEnv(spec, ns),
						Resources:       resources,
						ReadinessProbe: &corev1.Probe{
							ProbeHandler: corev1.ProbeHandler{
								TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromInt32(spec.Port)},
							},
							PeriodSeconds: 10,
						},
					}},
				},
			},
		},
	}

	svc := &corev1.Service{
		ObjectMeta: meta(ServiceName(spec.InstanceID)),
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: PodSelector(spec.WorkloadID, spec.InstanceID),
			Ports: []corev1.ServicePort{{
				Name:       "http",
				Port:       spec.Port,
				TargetPort: intstr.FromInt32(spec.Port),
				Protocol:   corev1.ProtocolTCP,
			}},
		},
	}

	hpa := &autoscalingv2.HorizontalPodAutoscaler{
		ObjectMeta: meta(HPAName(spec.InstanceID)),
		Spec: autoscalingv2.HorizontalPodAutoscalerSpec{
			ScaleTargetRef: autoscalingv2.CrossVersionObjectReference{
				APIVersion: "apps/v1",
				Kind:       "Deployment",
				Name:       DeploymentName(spec.InstanceID),
			},
			MinReplicas: ptr.To(spec.Replicas.Min),
			MaxReplicas: spec.Replicas.Max,
			Metrics: []autoscalingv2.MetricSpec{{
				Type: autoscalingv2.ResourceMetricSourceType,
				Resource: &autoscalingv2.ResourceMetricSource{
					Name: corev1.ResourceCPU,
					Target: autoscalingv2.MetricTarget{
						Type:               autoscalingv2.UtilizationMetricType,
						AverageUtilization: ptr.To(spec.AutoscaleCPU),
					},
				},
			}},
		},
	}

	vs := &VirtualService{
		Name:      VirtualServiceName(spec.WorkloadID),
		Namespace: ns,
		Labels:    WorkloadLabels(spec.WorkloadID, spec.WorkloadName),
		Hosts:     opts.Hosts,
		Gateways:  opts.Gateways,
		Prefix:    "/" + spec.WorkloadName + "/",
		Destinations: []Destination{{
			InstanceID: spec.InstanceID,
			Port:       spec.Port,
			Weight:     model.TotalWeight,
		}},
	}
	if len(vs.Hosts) == 0 {
		vs.Hosts = []string{"*"}
	}

	return &Manifests{
		WorkloadID:       spec.WorkloadID,
		Level:            spec.Level,
		Namespace:        ns,
		Deployment:       dep,
		Service:          svc,
		HPA:              hpa,
		VirtualService:   vs,
		ProgressDeadline: deadline,
	}, nil
}

func validateSpec(spec *model.DeploySpec) error {
	for field, v := range map[string]string{
		"workloadID":   spec.WorkloadID,
		"workloadName": spec.WorkloadName,
		"instanceID":   spec.InstanceID,
		"level":        spec.Level,
	} {
		if v == "" {
			return model.Invalid(field, "is required")
		}
	}
	if errs := validation.IsDNS1123Label(Namespace("", spec.Level)); len(errs) > 0 {
		return model.Invalid("level", "%v", errs)
	}
	if errs := validation.IsDNS1123Label(DeploymentName(spec.InstanceID)); len(errs) > 0 {
		return model.Invalid("instanceID", "%v", errs)
	}
	if errs := validation.IsDNS1123Label(VirtualServiceName(spec.WorkloadID)); len(errs) > 0 {
		return model.Invalid("workloadID", "%v", errs)
	}
	if errs := validation.IsValidLabelValue(spec.WorkloadName); len(errs) > 0 {
		return model.Invalid("workloadName", "%v", errs)
	}
	if spec.Image == "" {
		return model.Invalid("image", "is required")
	}
	if spec.Port <= 0 || spec.Port > 65535 {
		return model.Invalid("port", "%d out of range", spec.Port)
	}
	r := spec.Replicas
	if r.Min < 1 || r.Max < r.Min {
		return model.Invalid("replicas", "want 1 <= min <= max, got min=%d max=%d", r.Min, r.Max)
	}
	if r.Default < r.Min || r.Default > r.Max {
		return model.Invalid("replicas.default", "%d outside [%d, %d]", r.Default, r.Min, r.Max)
	}
	if spec.AutoscaleCPU < 1 || spec.AutoscaleCPU > 100 {
		return model.Invalid("autoscaleCPU", "%d outside [1, 100]", spec.AutoscaleCPU)
	}
	if spec.Rollout.MinReadySeconds < 0 {
		return model.Invalid("rollout.minReadySeconds", "must not be negative")
	}
	if spec.Storage.Mode == model.StorageS3 && spec.Storage.Bucket == "" {
		return model.Invalid("storage.bucket", "is required for s3 storage")
	}
	return nil
}

func resourceRequirements(r model.Resources) (corev1.ResourceRequirements, error) {
	var out corev1.ResourceRequirements
	set := func(list *corev1.ResourceList, name corev1.ResourceName, field, value string) error {
		if value == "" {
			return nil
		}
		q, err := resource.ParseQuantity(value)
		if err != nil {
			return model.Invalid(field, "%v", err)
		}
		if *list == nil {
			*list = corev1.ResourceList{}
		}
		(*list)[name] = q
		return nil
	}
	for _, e := range []struct {
		list  *corev1.ResourceList
		name  corev1.ResourceName
		field string
		value string
	}{
		{&out.Requests, corev1.ResourceCPU, "resources.cpuRequest", r.CPURequest},
		{&out.Requests, corev1.ResourceMemory, "resources.memoryRequest", r.MemoryRequest},
		{&out.Limits, corev1.ResourceCPU, "resources.cpuLimit", r.CPULimit},
		{&out.Limits, corev1.ResourceMemory, "resources.memoryLimit", r.MemoryLimit},
		{&out.Limits, "nvidia.com/gpu", "resources.gpuLimit", r.GPULimit},
	} {
		if err := set(e.list, e.name, e.field, e.value); err != nil {
			return out, err
		}
	}
	return out, nil
}

func copyLabels(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// String renders a short identification of the object set for logs.
func (m *Manifests) String() string {
	return fmt.Sprintf("%s/{%s,%s,%s,%s}", m.Namespace, m.Deployment.Name, m.Service.Name, m.HPA.Name, m.VirtualService.Name)
}
