// Package modelopscfg defines the schema of modelops.yml and of deploy
// request documents, with loaders and validation.
package modelopscfg

import "time"

// Root is the root structure of modelops.yml.
type Root struct {
	Version string   `yaml:"version"`
	Project string   `yaml:"project"` // RFC1123-compliant DNS label
	Ingress Ingress  `yaml:"ingress"`
	Targets []Target `yaml:"targets"`
	Lock    Lock     `yaml:"lock"`
	Logging Logging  `yaml:"logging"`
}

// Ingress configures the traffic rule shared by instances of a workload level.
type Ingress struct {
	Gateway         string   `yaml:"gateway"`         // Istio gateway, e.g. "istio-system/public"
	Hosts           []string `yaml:"hosts"`           // defaults to "*"
	NamespacePrefix string   `yaml:"namespacePrefix"` // prepended to the service level
}

// Target is a cluster target registered on startup.
type Target struct {
	Name     string            `yaml:"name"`
	Driver   string            `yaml:"driver"`   // e.g. "kubeconfig", "aks"
	Settings map[string]string `yaml:"settings"` // driver-specific settings
}

// Lock selects the route lock. An empty URL uses an in-process lock.
type Lock struct {
	URL string        `yaml:"url"` // redis://host:port/db
	TTL time.Duration `yaml:"ttl"`
}

// Logging configures the log file written by the CLI.
type Logging struct {
	Dir           string `yaml:"dir,omitempty"`
	Format        string `yaml:"format,omitempty"`
	Level         string `yaml:"level,omitempty"`
	RetentionDays int    `yaml:"retentionDays,omitempty"`
}
