package modelopscfg

import (
	"fmt"

	"github.com/kompox/modelops/internal/naming"
	utilvalidation "k8s.io/apimachinery/pkg/util/validation"
)

// Validate performs semantic validation on the configuration tree.
func (r *Root) Validate() error {
	if r.Project == "" {
		return fmt.Errorf("project is required")
	}
	if errs := utilvalidation.IsDNS1123Label(r.Project); len(errs) > 0 {
		return fmt.Errorf("project: %v", errs)
	}
	if p := r.Ingress.NamespacePrefix; p != "" {
		if errs := utilvalidation.IsDNS1123Label(p + "x"); len(errs) > 0 {
			return fmt.Errorf("ingress.namespacePrefix: %v", errs)
		}
	}
	seen := make(map[string]struct{}, len(r.Targets))
	for i, t := range r.Targets {
		if err := naming.ValidateTargetName(t.Name); err != nil {
			return fmt.Errorf("targets[%d].name: %w", i, err)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("targets[%d].name: duplicate target name %q", i, t.Name)
		}
		seen[t.Name] = struct{}{}
		if t.Driver == "" {
			return fmt.Errorf("targets[%d].driver is required", i)
		}
	}
	if r.Lock.TTL < 0 {
		return fmt.Errorf("lock.ttl must not be negative")
	}
	return nil
}
