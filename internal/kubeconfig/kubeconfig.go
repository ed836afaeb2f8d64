// Package kubeconfig reduces kubeconfigs returned by target drivers to a
// single self-contained context and merges them into user files.
package kubeconfig

import (
	"fmt"
	"io"

	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
	"sigs.k8s.io/yaml"
)

// LoadAndNormalize parses kubeconfig bytes and returns a config holding only
// the current context with its cluster and user, file references inlined.
// A non-empty name renames the context, cluster and user; a non-empty
// namespace becomes the context default.
func LoadAndNormalize(data []byte, name, namespace string) (*clientcmdapi.Config, error) {
	cfg, err := clientcmd.Load(data)
	if err != nil {
		return nil, fmt.Errorf("parse kubeconfig: %w", err)
	}
	if cfg.CurrentContext == "" {
		if len(cfg.Contexts) != 1 {
			return nil, fmt.Errorf("kubeconfig has no current context")
		}
		for k := range cfg.Contexts {
			cfg.CurrentContext = k
		}
	} else if cfg.Contexts[cfg.CurrentContext] == nil {
		return nil, fmt.Errorf("context %q not found in kubeconfig", cfg.CurrentContext)
	}
	if err := clientcmdapi.MinifyConfig(cfg); err != nil {
		return nil, fmt.Errorf("minify kubeconfig: %w", err)
	}
	if err := clientcmdapi.FlattenConfig(cfg); err != nil {
		return nil, fmt.Errorf("flatten kubeconfig: %w", err)
	}

	kctx := cfg.Contexts[cfg.CurrentContext]
	cluster, ok := cfg.Clusters[kctx.Cluster]
	if !ok {
		return nil, fmt.Errorf("referenced cluster %q not found", kctx.Cluster)
	}
	user, ok := cfg.AuthInfos[kctx.AuthInfo]
	if !ok {
		return nil, fmt.Errorf("referenced user %q not found", kctx.AuthInfo)
	}
	if namespace != "" {
		kctx.Namespace = namespace
	}
	if name == "" {
		return cfg, nil
	}

	out := clientcmdapi.NewConfig()
	kctx.Cluster = name
	kctx.AuthInfo = name
	out.Contexts[name] = kctx
	out.Clusters[name] = cluster
	out.AuthInfos[name] = user
	out.CurrentContext = name
	return out, nil
}

// Bytes serializes cfg as kubeconfig YAML.
func Bytes(cfg *clientcmdapi.Config) ([]byte, error) {
	data, err := clientcmd.Write(*cfg)
	if err != nil {
		return nil, fmt.Errorf("serialize kubeconfig: %w", err)
	}
	return data, nil
}

// Print writes cfg to w as yaml (default) or json.
func Print(w io.Writer, cfg *clientcmdapi.Config, format string) error {
	data, err := Bytes(cfg)
	if err != nil {
		return err
	}
	if format == "json" {
		if data, err = yaml.YAMLToJSON(data); err != nil {
			return fmt.Errorf("convert to json: %w", err)
		}
	}
	_, err = w.Write(data)
	return err
}

// Merge adds the current context of cfg to the kubeconfig file at path and
// returns the merged config with the final context name. Existing entries of
// the same name are replaced when force is set; otherwise a -N suffix is
// appended. A missing or unreadable file starts from an empty config.
func Merge(cfg *clientcmdapi.Config, path string, force, setCurrent bool) (*clientcmdapi.Config, string, error) {
	if cfg == nil || cfg.Contexts[cfg.CurrentContext] == nil {
		return nil, "", fmt.Errorf("input kubeconfig has no current context")
	}
	kctx := cfg.Contexts[cfg.CurrentContext]
	cluster, user := cfg.Clusters[kctx.Cluster], cfg.AuthInfos[kctx.AuthInfo]
	if cluster == nil || user == nil {
		return nil, "", fmt.Errorf("context %q references missing cluster or user", cfg.CurrentContext)
	}

	dst, err := clientcmd.LoadFromFile(path)
	if err != nil {
		dst = clientcmdapi.NewConfig()
	}
	ctxName, clusterName, userName := cfg.CurrentContext, kctx.Cluster, kctx.AuthInfo
	if !force {
		ctxName = uniqueName(ctxName, dst.Contexts)
		clusterName = uniqueName(clusterName, dst.Clusters)
		userName = uniqueName(userName, dst.AuthInfos)
	}
	merged := kctx.DeepCopy()
	merged.Cluster = clusterName
	merged.AuthInfo = userName
	dst.Contexts[ctxName] = merged
	dst.Clusters[clusterName] = cluster.DeepCopy()
	dst.AuthInfos[userName] = user.DeepCopy()
	if setCurrent || dst.CurrentContext == "" {
		dst.CurrentContext = ctxName
	}
	return dst, ctxName, nil
}

// uniqueName returns name, or name-1, name-2... for the first key absent in m.
func uniqueName[T any](name string, m map[string]T) string {
	if _, ok := m[name]; !ok {
		return name
	}
	for i := 1; ; i++ {
		cand := fmt.Sprintf("%s-%d", name, i)
		if _, ok := m[cand]; !ok {
			return cand
		}
	}
}
