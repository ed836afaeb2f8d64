// Package kubefake builds kube.Client values backed by client-go fakes.
package kubefake

import (
	"context"
	"sync"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/domain/model"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	k8sfake "k8s.io/client-go/kubernetes/fake"
)

// Cluster bundles a kube.Client with the fakes behind it so tests can seed
// objects, inspect actions and install reactors.
type Cluster struct {
	*kube.Client
	Typed   *k8sfake.Clientset
	Dynamic *dynamicfake.FakeDynamicClient
}

// New returns an empty fake cluster that serves Istio VirtualServices.
func New(objs ...runtime.Object) *Cluster {
	typed := k8sfake.NewSimpleClientset(objs...)
	dy := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), map[schema.GroupVersionResource]string{
		kube.VirtualServiceGVR: "VirtualServiceList",
	})
	return &Cluster{Client: kube.NewClient(typed, dy), Typed: typed, Dynamic: dy}
}

// Connector hands out one fake cluster per target ID, created on first use.
type Connector struct {
	mu       sync.Mutex
	clusters map[string]*Cluster
	// Err, when set, is returned by Connect for every target.
	Err error
}

// NewConnector returns a Connector with no clusters.
func NewConnector() *Connector {
	return &Connector{clusters: make(map[string]*Cluster)}
}

// Cluster returns the fake cluster of targetID.
func (c *Connector) Cluster(targetID string) *Cluster {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl, ok := c.clusters[targetID]
	if !ok {
		cl = New()
		c.clusters[targetID] = cl
	}
	return cl
}

func (c *Connector) Connect(_ context.Context, target *model.ClusterTarget) (kube.ClusterClient, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Cluster(target.ID).Client, nil
}

var _ kube.Connector = (*Connector)(nil)
