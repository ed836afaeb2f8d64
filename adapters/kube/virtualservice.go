package kube

import (
	"fmt"

	"github.com/kompox/modelops/domain/model"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// VirtualServiceGVR identifies the Istio VirtualService resource used as the
// traffic-ingress rule.
var VirtualServiceGVR = schema.GroupVersionResource{Group: "networking.istio.io", Version: "v1beta1", Resource: "virtualservices"}

const (
	virtualServiceAPIVersion = "networking.istio.io/v1beta1"
	virtualServiceKind       = "VirtualService"
)

// VirtualService is the subset of an Istio VirtualService managed by modelops:
// one HTTP rule matching Prefix with weighted destinations.
type VirtualService struct {
	Name            string
	Namespace       string
	ResourceVersion string
	Labels          map[string]string
	Hosts           []string
	Gateways        []string
	Prefix          string
	Destinations    []Destination
}

// Destination is one weighted route to an instance Service.
type Destination struct {
	InstanceID string
	Port       int32
	Weight     int
}

// Routes returns the route list in rule order.
func (vs *VirtualService) Routes() model.RouteSet {
	out := make(model.RouteSet, 0, len(vs.Destinations))
	for _, d := range vs.Destinations {
		out = append(out, model.Route{InstanceID: d.InstanceID, Weight: d.Weight})
	}
	return out
}

// SetRoutes replaces the destinations with routes. Ports of instances already
// present are kept; others are looked up in ports.
func (vs *VirtualService) SetRoutes(routes model.RouteSet, ports map[string]int32) error {
	known := make(map[string]int32, len(vs.Destinations))
	for _, d := range vs.Destinations {
		known[d.InstanceID] = d.Port
	}
	out := make([]Destination, 0, len(routes))
	for _, r := range routes {
		port, ok := known[r.InstanceID]
		if !ok {
			port, ok = ports[r.InstanceID]
		}
		if !ok || port == 0 {
			return fmt.Errorf("no port known for service instance %s", r.InstanceID)
		}
		out = append(out, Destination{InstanceID: r.InstanceID, Port: port, Weight: r.Weight})
	}
	vs.Destinations = out
	return nil
}

// ToUnstructured encodes vs for the dynamic client. Numbers are int64 and
// lists are []any so that the result survives unstructured deep copies.
func (vs *VirtualService) ToUnstructured() *unstructured.Unstructured {
	routes := make([]any, 0, len(vs.Destinations))
	for _, d := range vs.Destinations {
		routes = append(routes, map[string]any{
			"destination": map[string]any{
				"host": ServiceHost(d.InstanceID, vs.Namespace),
				"port": map[string]any{"number": int64(d.Port)},
			},
			"weight": int64(d.Weight),
		})
	}
	http := map[string]any{
		"match":   []any{map[string]any{"uri": map[string]any{"prefix": vs.Prefix}}},
		"rewrite": map[string]any{"uri": "/"},
		"route":   routes,
	}
	spec := map[string]any{
		"hosts": toAnySlice(vs.Hosts),
		"http":  []any{http},
	}
	if len(vs.Gateways) > 0 {
		spec["gateways"] = toAnySlice(vs.Gateways)
	}
	u := &unstructured.Unstructured{Object: map[string]any{"spec": spec}}
	u.SetAPIVersion(virtualServiceAPIVersion)
	u.SetKind(virtualServiceKind)
	u.SetName(vs.Name)
	u.SetNamespace(vs.Namespace)
	if vs.ResourceVersion != "" {
		u.SetResourceVersion(vs.ResourceVersion)
	}
	if len(vs.Labels) > 0 {
		u.SetLabels(vs.Labels)
	}
	return u
}

// VirtualServiceFromUnstructured decodes an object written by ToUnstructured.
// Route entries whose destination is not an instance Service are dropped.
func VirtualServiceFromUnstructured(u *unstructured.Unstructured) (*VirtualService, error) {
	vs := &VirtualService{
		Name:            u.GetName(),
		Namespace:       u.GetNamespace(),
		ResourceVersion: u.GetResourceVersion(),
		Labels:          u.GetLabels(),
	}
	hosts, _, err := unstructured.NestedStringSlice(u.Object, "spec", "hosts")
	if err != nil {
		return nil, fmt.Errorf("virtualservice %s/%s: spec.hosts: %w", vs.Namespace, vs.Name, err)
	}
	vs.Hosts = hosts
	gateways, _, err := unstructured.NestedStringSlice(u.Object, "spec", "gateways")
	if err != nil {
		return nil, fmt.Errorf("virtualservice %s/%s: spec.gateways: %w", vs.Namespace, vs.Name, err)
	}
	vs.Gateways = gateways
	httpRules, _, err := unstructured.NestedSlice(u.Object, "spec", "http")
	if err != nil {
		return nil, fmt.Errorf("virtualservice %s/%s: spec.http: %w", vs.Namespace, vs.Name, err)
	}
	if len(httpRules) == 0 {
		return vs, nil
	}
	rule, ok := httpRules[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("virtualservice %s/%s: spec.http[0] is not an object", vs.Namespace, vs.Name)
	}
	if matches, _, _ := unstructured.NestedSlice(rule, "match"); len(matches) > 0 {
		if m, ok := matches[0].(map[string]any); ok {
			vs.Prefix, _, _ = unstructured.NestedString(m, "uri", "prefix")
		}
	}
	routes, _, err := unstructured.NestedSlice(rule, "route")
	if err != nil {
		return nil, fmt.Errorf("virtualservice %s/%s: spec.http[0].route: %w", vs.Namespace, vs.Name, err)
	}
	for _, r := range routes {
		rm, ok := r.(map[string]any)
		if !ok {
			continue
		}
		host, _, _ := unstructured.NestedString(rm, "destination", "host")
		id := InstanceIDFromHost(host)
		if id == "" {
			continue
		}
		port, _ := nestedInt(rm, "destination", "port", "number")
		weight, ok := nestedInt(rm, "weight")
		if !ok && len(routes) == 1 {
			weight = model.TotalWeight
		}
		vs.Destinations = append(vs.Destinations, Destination{InstanceID: id, Port: int32(port), Weight: int(weight)})
	}
	return vs, nil
}

// nestedInt reads an integer that may have been decoded as int64 or float64.
func nestedInt(obj map[string]any, fields ...string) (int64, bool) {
	v, found, err := unstructured.NestedFieldNoCopy(obj, fields...)
	if err != nil || !found {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func toAnySlice(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}
