package kube

import (
	"bytes"
	"fmt"

	yaml "gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

// Render returns the object set as multi-document YAML with empty maps,
// null values and status removed.
func (m *Manifests) Render() (string, error) {
	var buf bytes.Buffer
	for _, obj := range m.Objects() {
		var doc map[string]any
		if u, ok := obj.(*unstructured.Unstructured); ok {
			doc = u.DeepCopy().Object
		} else {
			var err error
			if doc, err = runtime.DefaultUnstructuredConverter.ToUnstructured(obj); err != nil {
				return "", fmt.Errorf("to unstructured: %w", err)
			}
		}
		pruneMap(doc)
		delete(doc, "status")
		buf.WriteString("---\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return "", err
		}
		_ = enc.Close()
	}
	return buf.String(), nil
}

// pruneMap recursively prunes nil values and empty maps (in-place), preserving empty slices.
func pruneMap(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			cleaned := pruneMap(val)
			switch cv := cleaned.(type) {
			case nil:
				delete(x, k)
			case map[string]any:
				if len(cv) == 0 {
					delete(x, k)
				} else {
					x[k] = cv
				}
			default:
				x[k] = cv
			}
		}
		return x
	case []any:
		for i, it := range x {
			x[i] = pruneMap(it)
		}
		return x
	default:
		return x
	}
}
