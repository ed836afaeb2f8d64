package kube

import (
	"context"
	"fmt"

	"github.com/kompox/modelops/internal/logging"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// GetVirtualService reads the named VirtualService. A NotFound status is
// wrapped and can be tested with apierrors.IsNotFound.
func (c *Client) GetVirtualService(ctx context.Context, namespace, name string) (*VirtualService, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	u, err := c.Dynamic.Resource(VirtualServiceGVR).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("get virtualservice %s/%s: %w", namespace, name, err)
	}
	return VirtualServiceFromUnstructured(u)
}

// CreateVirtualService creates vs and returns the stored object.
func (c *Client) CreateVirtualService(ctx context.Context, vs *VirtualService) (*VirtualService, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx).With("ns", vs.Namespace, "kind", KindVirtualService, "name", vs.Name)
	u := vs.ToUnstructured()
	u.SetResourceVersion("")
	out, err := c.Dynamic.Resource(VirtualServiceGVR).Namespace(vs.Namespace).Create(ctx, u, metav1.CreateOptions{FieldManager: FieldManager})
	if err != nil {
		logger.Info(ctx, "KubeClient:Create/efail", "err", err)
		return nil, fmt.Errorf("create virtualservice %s/%s: %w", vs.Namespace, vs.Name, err)
	}
	logger.Info(ctx, "KubeClient:Create/eok")
	return VirtualServiceFromUnstructured(out)
}

// UpdateVirtualService replaces vs conditioned on its ResourceVersion. An
// empty ResourceVersion makes the write unconditional.
func (c *Client) UpdateVirtualService(ctx context.Context, vs *VirtualService) (*VirtualService, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx).With("ns", vs.Namespace, "kind", KindVirtualService, "name", vs.Name, "rv", vs.ResourceVersion)
	out, err := c.Dynamic.Resource(VirtualServiceGVR).Namespace(vs.Namespace).Update(ctx, vs.ToUnstructured(), metav1.UpdateOptions{FieldManager: FieldManager})
	if err != nil {
		logger.Info(ctx, "KubeClient:Update/efail", "err", err)
		return nil, fmt.Errorf("update virtualservice %s/%s: %w", vs.Namespace, vs.Name, err)
	}
	logger.Info(ctx, "KubeClient:Update/eok")
	return VirtualServiceFromUnstructured(out)
}

// DeleteVirtualService deletes the named VirtualService (idempotent).
func (c *Client) DeleteVirtualService(ctx context.Context, namespace, name string) error {
	return c.DeleteObject(ctx, KindVirtualService, namespace, name)
}
