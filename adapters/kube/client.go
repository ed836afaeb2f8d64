package kube

import (
	"context"
	"fmt"
	"io"

	"github.com/kompox/modelops/domain/model"
	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// FieldManager identifies modelops writes in managedFields.
const FieldManager = "modelops"

// ClusterClient is the cluster capability used by the use cases. Every call is
// a blocking round trip to the API server; none is retried internally.
type ClusterClient interface {
	// EnsureNamespace creates the namespace if absent.
	EnsureNamespace(ctx context.Context, name string) error

	// ObjectExists reports whether kind/namespace/name exists.
	ObjectExists(ctx context.Context, kind Kind, namespace, name string) (bool, error)
	// CreateObject creates a Deployment, Service or HorizontalPodAutoscaler.
	CreateObject(ctx context.Context, obj Object) error
	// UpdateObject replaces the live object's spec with obj's, removing
	// fields obj no longer sets, and overlays obj's labels and annotations.
	UpdateObject(ctx context.Context, obj Object) error
	// DeleteObject deletes kind/namespace/name; a missing object is not an error.
	DeleteObject(ctx context.Context, kind Kind, namespace, name string) error
	// ListDeployments lists Deployments matching selector; an empty namespace means all.
	ListDeployments(ctx context.Context, namespace, selector string) ([]appsv1.Deployment, error)
	// GetDeployment returns the named Deployment.
	GetDeployment(ctx context.Context, namespace, name string) (*appsv1.Deployment, error)

	GetVirtualService(ctx context.Context, namespace, name string) (*VirtualService, error)
	CreateVirtualService(ctx context.Context, vs *VirtualService) (*VirtualService, error)
	// UpdateVirtualService writes vs conditioned on vs.ResourceVersion and
	// fails with a Conflict status when the object changed since it was read.
	// Objects read from an API server always carry a ResourceVersion.
	UpdateVirtualService(ctx context.Context, vs *VirtualService) (*VirtualService, error)
	DeleteVirtualService(ctx context.Context, namespace, name string) error

	// WorkerLogs writes worker container logs of pods matching selector to w.
	WorkerLogs(ctx context.Context, namespace, selector string, opts *LogOptions, w io.Writer) error
}

// Connector opens a ClusterClient for a cluster target.
type Connector interface {
	Connect(ctx context.Context, target *model.ClusterTarget) (ClusterClient, error)
}

// Client talks to one cluster through typed and dynamic clients.
type Client struct {
	RESTConfig *rest.Config
	Clientset  kubernetes.Interface
	// Dynamic serves Istio VirtualServices.
	Dynamic dynamic.Interface
}

var _ ClusterClient = (*Client)(nil)

// Options tunes the REST client. Zero values take defaults.
type Options struct {
	UserAgent string
	QPS       float32 // default 20
	Burst     int     // default 50
}

// NewClient wraps existing typed and dynamic clients, e.g. fakes in tests.
func NewClient(cs kubernetes.Interface, dy dynamic.Interface) *Client {
	return &Client{Clientset: cs, Dynamic: dy}
}

// NewClientFromKubeconfig builds a Client from kubeconfig bytes, using the
// current context.
func NewClientFromKubeconfig(_ context.Context, kubeconfig []byte, opts *Options) (*Client, error) {
	if len(kubeconfig) == 0 {
		return nil, fmt.Errorf("kubeconfig is empty")
	}
	cfg, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("parse kubeconfig: %w", err)
	}
	var o Options
	if opts != nil {
		o = *opts
	}
	cfg.QPS, cfg.Burst = 20, 50
	if o.QPS > 0 {
		cfg.QPS = o.QPS
	}
	if o.Burst > 0 {
		cfg.Burst = o.Burst
	}
	if o.UserAgent != "" {
		cfg = rest.AddUserAgent(cfg, o.UserAgent)
	}
	c := &Client{RESTConfig: cfg}
	if c.Clientset, err = kubernetes.NewForConfig(cfg); err != nil {
		return nil, fmt.Errorf("clientset: %w", err)
	}
	if c.Dynamic, err = dynamic.NewForConfig(cfg); err != nil {
		return nil, fmt.Errorf("dynamic client: %w", err)
	}
	return c, nil
}

func (c *Client) ready() error {
	if c == nil || c.Clientset == nil || c.Dynamic == nil {
		return fmt.Errorf("kube client is not initialized")
	}
	return nil
}
