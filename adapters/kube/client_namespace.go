package kube

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// EnsureNamespace creates the level namespace. An existing namespace is left
// untouched, including one not created by modelops. Credentials that may not
// create namespaces still pass when the namespace is already there.
func (c *Client) EnsureNamespace(ctx context.Context, name string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("ensure namespace: empty name")
	}
	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{
		Name:   name,
		Labels: map[string]string{LabelAppK8sManagedBy: ManagedBy},
	}}
	_, err := c.Clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{FieldManager: FieldManager})
	switch {
	case err == nil, apierrors.IsAlreadyExists(err):
		return nil
	case apierrors.IsForbidden(err):
		if _, gerr := c.Clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{}); gerr == nil {
			return nil
		}
	}
	return fmt.Errorf("ensure namespace %s: %w", name, err)
}
