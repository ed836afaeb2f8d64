package modelopscfg

import (
	"maps"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/domain/model"
)

// ManifestOptions returns the cluster-wide manifest settings.
func (r *Root) ManifestOptions() kube.ManifestOptions {
	opts := kube.ManifestOptions{
		NamespacePrefix: r.Ingress.NamespacePrefix,
		Hosts:           append([]string(nil), r.Ingress.Hosts...),
	}
	if r.Ingress.Gateway != "" {
		opts.Gateways = []string{r.Ingress.Gateway}
	}
	return opts
}

// ToTargets converts the configured targets into cluster targets of the
// project. IDs are left empty for the repository to assign.
func (r *Root) ToTargets() []*model.ClusterTarget {
	out := make([]*model.ClusterTarget, 0, len(r.Targets))
	for _, t := range r.Targets {
		out = append(out, &model.ClusterTarget{
			Name:      t.Name,
			ProjectID: r.Project,
			Driver:    t.Driver,
			Settings:  maps.Clone(t.Settings),
		})
	}
	return out
}
