// Package targetdrv resolves cluster targets to Kubernetes credentials.
// Drivers live under adapters/drivers/target/<name> and register themselves
// from init().
package targetdrv

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kompox/modelops/domain/model"
)

// Driver fetches a kubeconfig for a cluster target.
type Driver interface {
	// ID returns the driver identifier (e.g., "aks").
	ID() string
	// Kubeconfig returns kubeconfig bytes granting access to the target.
	Kubeconfig(ctx context.Context, target *model.ClusterTarget) ([]byte, error)
}

// Factory constructs a driver from target settings.
type Factory func(settings map[string]string) (Driver, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a driver available by the given name.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// GetDriverFactory returns the driver factory function for the given name.
func GetDriverFactory(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Names returns registered driver names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New builds the driver of target. Unknown drivers and rejected settings
// are reported as model.ErrTargetInvalid.
func New(target *model.ClusterTarget) (Driver, error) {
	f, ok := GetDriverFactory(target.Driver)
	if !ok {
		return nil, fmt.Errorf("%w: unknown driver %q (available: %v)", model.ErrTargetInvalid, target.Driver, Names())
	}
	d, err := f(target.Settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrTargetInvalid, target.Name, err)
	}
	return d, nil
}
