package kube

import (
	"context"
	"fmt"
	"maps"

	"github.com/kompox/modelops/internal/logging"
	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/util/retry"
)

// Kind names an object kind managed per instance.
type Kind string

const (
	KindDeployment     Kind = "Deployment"
	KindService        Kind = "Service"
	KindHPA            Kind = "HorizontalPodAutoscaler"
	KindVirtualService Kind = "VirtualService"
)

// Object is a typed Deployment, Service or HorizontalPodAutoscaler.
type Object interface {
	metav1.Object
	runtime.Object
}

// KindOf returns the Kind of a typed object.
func KindOf(obj Object) (Kind, error) {
	switch obj.(type) {
	case *appsv1.Deployment:
		return KindDeployment, nil
	case *corev1.Service:
		return KindService, nil
	case *autoscalingv2.HorizontalPodAutoscaler:
		return KindHPA, nil
	}
	return "", fmt.Errorf("unsupported object type %T", obj)
}

// ObjectExists reports whether the object exists. NotFound is mapped to false.
func (c *Client) ObjectExists(ctx context.Context, kind Kind, namespace, name string) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	var err error
	switch kind {
	case KindDeployment:
		_, err = c.Clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	case KindService:
		_, err = c.Clientset.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
	case KindHPA:
		_, err = c.Clientset.AutoscalingV2().HorizontalPodAutoscalers(namespace).Get(ctx, name, metav1.GetOptions{})
	case KindVirtualService:
		_, err = c.Dynamic.Resource(VirtualServiceGVR).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	default:
		return false, fmt.Errorf("unsupported kind %s", kind)
	}
	if err == nil {
		return true, nil
	}
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("get %s %s/%s: %w", kind, namespace, name, err)
}

// CreateObject creates obj. AlreadyExists is returned unchanged (wrapped) so
// callers can fall back to UpdateObject.
func (c *Client) CreateObject(ctx context.Context, obj Object) (err error) {
	if err := c.ready(); err != nil {
		return err
	}
	kind, err := KindOf(obj)
	if err != nil {
		return err
	}
	ns, name := obj.GetNamespace(), obj.GetName()
	logger := logging.FromContext(ctx).With("ns", ns, "kind", kind, "name", name)
	opts := metav1.CreateOptions{FieldManager: FieldManager}
	switch o := obj.(type) {
	case *appsv1.Deployment:
		_, err = c.Clientset.AppsV1().Deployments(ns).Create(ctx, o, opts)
	case *corev1.Service:
		_, err = c.Clientset.CoreV1().Services(ns).Create(ctx, o, opts)
	case *autoscalingv2.HorizontalPodAutoscaler:
		_, err = c.Clientset.AutoscalingV2().HorizontalPodAutoscalers(ns).Create(ctx, o, opts)
	}
	if err != nil {
		logger.Info(ctx, "KubeClient:Create/efail", "err", err)
		return fmt.Errorf("create %s %s/%s: %w", kind, ns, name, err)
	}
	logger.Info(ctx, "KubeClient:Create/eok")
	return nil
}

// UpdateObject replaces the live object's spec with obj's and overlays obj's
// labels and annotations. Spec fields obj no longer sets are removed from the
// live object. Each attempt reads the live object and writes conditioned on its
// resourceVersion; conflicts are retried with a fresh read.
func (c *Client) UpdateObject(ctx context.Context, obj Object) (err error) {
	if err := c.ready(); err != nil {
		return err
	}
	kind, err := KindOf(obj)
	if err != nil {
		return err
	}
	ns, name := obj.GetNamespace(), obj.GetName()
	logger := logging.FromContext(ctx).With("ns", ns, "kind", kind, "name", name)
	err = retry.RetryOnConflict(retry.DefaultRetry, func() error {
		return c.updateOnce(ctx, obj)
	})
	if err != nil {
		logger.Info(ctx, "KubeClient:Update/efail", "err", err)
		return fmt.Errorf("update %s %s/%s: %w", kind, ns, name, err)
	}
	logger.Info(ctx, "KubeClient:Update/eok")
	return nil
}

func (c *Client) updateOnce(ctx context.Context, obj Object) error {
	ns, name := obj.GetNamespace(), obj.GetName()
	opts := metav1.UpdateOptions{FieldManager: FieldManager}
	switch o := obj.(type) {
	case *appsv1.Deployment:
		api := c.Clientset.AppsV1().Deployments(ns)
		live, err := api.Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return err
		}
		next := live.DeepCopy()
		overlayMeta(next, o)
		next.Spec = *o.Spec.DeepCopy()
		_, err = api.Update(ctx, next, opts)
		return err
	case *corev1.Service:
		api := c.Clientset.CoreV1().Services(ns)
		live, err := api.Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return err
		}
		next := live.DeepCopy()
		overlayMeta(next, o)
		next.Spec = *o.Spec.DeepCopy()
		// Allocated by the API server and immutable.
		next.Spec.ClusterIP = live.Spec.ClusterIP
		next.Spec.ClusterIPs = live.Spec.ClusterIPs
		next.Spec.IPFamilies = live.Spec.IPFamilies
		next.Spec.IPFamilyPolicy = live.Spec.IPFamilyPolicy
		_, err = api.Update(ctx, next, opts)
		return err
	case *autoscalingv2.HorizontalPodAutoscaler:
		api := c.Clientset.AutoscalingV2().HorizontalPodAutoscalers(ns)
		live, err := api.Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return err
		}
		next := live.DeepCopy()
		overlayMeta(next, o)
		next.Spec = *o.Spec.DeepCopy()
		_, err = api.Update(ctx, next, opts)
		return err
	}
	return fmt.Errorf("unsupported object type %T", obj)
}

// overlayMeta copies src's labels and annotations onto dst, keeping entries
// written by other actors such as the deployment controller.
func overlayMeta(dst, src metav1.Object) {
	dst.SetLabels(overlay(dst.GetLabels(), src.GetLabels()))
	dst.SetAnnotations(overlay(dst.GetAnnotations(), src.GetAnnotations()))
}

func overlay(base, top map[string]string) map[string]string {
	if len(base) == 0 && len(top) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(top))
	maps.Copy(out, base)
	maps.Copy(out, top)
	return out
}

// DeleteObject deletes the object with background propagation (idempotent).
func (c *Client) DeleteObject(ctx context.Context, kind Kind, namespace, name string) error {
	if err := c.ready(); err != nil {
		return err
	}
	propagation := metav1.DeletePropagationBackground
	opts := metav1.DeleteOptions{PropagationPolicy: &propagation}
	logger := logging.FromContext(ctx).With("ns", namespace, "kind", kind, "name", name)
	var err error
	switch kind {
	case KindDeployment:
		err = c.Clientset.AppsV1().Deployments(namespace).Delete(ctx, name, opts)
	case KindService:
		err = c.Clientset.CoreV1().Services(namespace).Delete(ctx, name, opts)
	case KindHPA:
		err = c.Clientset.AutoscalingV2().HorizontalPodAutoscalers(namespace).Delete(ctx, name, opts)
	case KindVirtualService:
		err = c.Dynamic.Resource(VirtualServiceGVR).Namespace(namespace).Delete(ctx, name, opts)
	default:
		return fmt.Errorf("unsupported kind %s", kind)
	}
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		logger.Info(ctx, "KubeClient:Delete/efail", "err", err)
		return fmt.Errorf("delete %s %s/%s: %w", kind, namespace, name, err)
	}
	logger.Info(ctx, "KubeClient:Delete/eok")
	return nil
}

// ListDeployments lists Deployments matching selector.
func (c *Client) ListDeployments(ctx context.Context, namespace, selector string) ([]appsv1.Deployment, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	list, err := c.Clientset.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("list deployments %q: %w", selector, err)
	}
	return list.Items, nil
}

// GetDeployment returns the named Deployment.
func (c *Client) GetDeployment(ctx context.Context, namespace, name string) (*appsv1.Deployment, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	d, err := c.Clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("get deployment %s/%s: %w", namespace, name, err)
	}
	return d, nil
}
