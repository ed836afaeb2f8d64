package naming

import (
	"strings"
	"testing"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string) error
		value string
		ok    bool
	}{
		{"workload short", ValidateWorkloadName, "iris", true},
		{"workload at limit", ValidateWorkloadName, strings.Repeat("a", workloadRule.max), true},
		{"workload over limit", ValidateWorkloadName, strings.Repeat("a", workloadRule.max+1), false},
		{"workload uppercase", ValidateWorkloadName, "Iris", false},
		{"workload leading hyphen", ValidateWorkloadName, "-iris", false},
		{"workload slash", ValidateWorkloadName, "iris/v2", false},
		{"workload empty", ValidateWorkloadName, "", false},
		{"target", ValidateTargetName, "aks-east-1", true},
		{"target underscore", ValidateTargetName, "aks_east", false},
		{"target over limit", ValidateTargetName, strings.Repeat("t", targetRule.max+1), false},
		{"level", ValidateLevel, "staging", true},
		{"level dot", ValidateLevel, "prod.eu", false},
		{"level empty", ValidateLevel, "", false},
		{"version semver", ValidateVersion, "1.2.3", true},
		{"version mixed case", ValidateVersion, "Release_2024-01", true},
		{"version space", ValidateVersion, "1 2", false},
		{"version over limit", ValidateVersion, strings.Repeat("v", versionRule.max+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn(tt.value)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Errorf("expected error for %q", tt.value)
			}
		})
	}
}

func TestValidateMessageNamesKind(t *testing.T) {
	err := ValidateLevel("")
	if err == nil || !strings.Contains(err.Error(), "level") {
		t.Fatalf("got %v", err)
	}
}
