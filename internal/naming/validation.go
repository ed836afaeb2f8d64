package naming

import (
	"fmt"
	"strings"

	utilvalidation "k8s.io/apimachinery/pkg/util/validation"
)

// nameRule describes one kind of user supplied identifier.
type nameRule struct {
	kind  string
	max   int
	check func(string) []string
}

var (
	// Workload names become label values and the first ingress path segment.
	workloadRule = nameRule{kind: "workload name", max: 40, check: utilvalidation.IsDNS1123Label}
	targetRule   = nameRule{kind: "target name", max: 32, check: utilvalidation.IsDNS1123Label}
	// Levels are appended to the namespace prefix.
	levelRule   = nameRule{kind: "level", max: 20, check: utilvalidation.IsDNS1123Label}
	versionRule = nameRule{kind: "version", max: 63, check: utilvalidation.IsValidLabelValue}
)

func (r nameRule) validate(s string) error {
	switch {
	case s == "":
		return fmt.Errorf("%s must not be empty", r.kind)
	case len(s) > r.max:
		return fmt.Errorf("%s %q is longer than %d characters", r.kind, s, r.max)
	}
	if errs := r.check(s); len(errs) > 0 {
		return fmt.Errorf("%s %q: %s", r.kind, s, strings.Join(errs, "; "))
	}
	return nil
}

// ValidateWorkloadName checks a workload name.
func ValidateWorkloadName(name string) error { return workloadRule.validate(name) }

// ValidateTargetName checks a cluster target name.
func ValidateTargetName(name string) error { return targetRule.validate(name) }

// ValidateLevel checks a deployment level such as "staging".
func ValidateLevel(level string) error { return levelRule.validate(level) }

// ValidateVersion checks a service instance version, stored as a label value.
func ValidateVersion(version string) error { return versionRule.validate(version) }
