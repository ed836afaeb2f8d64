package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	targetdrv "github.com/kompox/modelops/adapters/drivers/target"
	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/adapters/lock"
	"github.com/kompox/modelops/adapters/store/inmem"
	"github.com/kompox/modelops/adapters/store/rdb"
	"github.com/kompox/modelops/config/modelopscfg"
	"github.com/kompox/modelops/domain"
	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/logging"
	"github.com/kompox/modelops/internal/metrics"
	"github.com/kompox/modelops/usecase/artifact"
	"github.com/kompox/modelops/usecase/deployment"
	"github.com/kompox/modelops/usecase/reconcile"
	"github.com/kompox/modelops/usecase/routing"
	"github.com/kompox/modelops/usecase/target"
	"github.com/kompox/modelops/usecase/workload"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// env holds the adapters shared by every use case of one invocation.
type env struct {
	cfg       *modelopscfg.Root
	repos     *domain.Repositories
	connector *targetdrv.Connector
	locker    lock.Locker
	metrics   *metrics.Metrics
	closers   []func() error
}

// envCache keeps one env per (db-url, config) so that use cases built by the
// same process share in-memory stores and the lock client.
var (
	envCache   = map[string]*env{}
	envCacheMu sync.Mutex
)

// findFlag looks up a flag on cmd or any of its parents.
func findFlag(cmd *cobra.Command, name string) *pflag.Flag {
	for c := cmd; c != nil; c = c.Parent() {
		if f := c.Flags().Lookup(name); f != nil {
			return f
		}
		if f := c.PersistentFlags().Lookup(name); f != nil {
			return f
		}
	}
	return nil
}

func flagValue(cmd *cobra.Command, name string) string {
	if f := findFlag(cmd, name); f != nil {
		return f.Value.String()
	}
	return ""
}

// loadConfig reads and validates the configuration file. A missing default
// file yields nil so that commands like version work without one.
func loadConfig(cmd *cobra.Command) (*modelopscfg.Root, error) {
	path := flagValue(cmd, "config")
	f := findFlag(cmd, "config")
	explicit := (f != nil && f.Changed) || os.Getenv("MODELOPS_CONFIG") != ""
	cfg, err := modelopscfg.Load(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// buildRepos opens the registry selected by db-url.
func buildRepos(cmd *cobra.Command) (*domain.Repositories, func() error, error) {
	dbURL := flagValue(cmd, "db-url")
	switch {
	case strings.HasPrefix(dbURL, "memory:"):
		return inmem.NewStore().Repositories(), nil, nil

	case strings.HasPrefix(dbURL, "sqlite:") || strings.HasPrefix(dbURL, "sqlite3:"):
		db, err := rdb.OpenFromURL(dbURL)
		if err != nil {
			return nil, nil, err
		}
		if err := rdb.AutoMigrate(db); err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return rdb.NewRepositories(db), sqlDB.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported db scheme: %s", dbURL)
	}
}

// buildEnv returns the cached env of cmd, building it on first use. Targets
// declared in the configuration are upserted into the registry.
func buildEnv(cmd *cobra.Command) (*env, error) {
	key := flagValue(cmd, "db-url") + "|" + flagValue(cmd, "config")
	envCacheMu.Lock()
	defer envCacheMu.Unlock()
	if e, ok := envCache[key]; ok {
		return e, nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration file %s not found (use --config)", flagValue(cmd, "config"))
	}
	repos, closeDB, err := buildRepos(cmd)
	if err != nil {
		return nil, err
	}
	m, err := metrics.New(nil)
	if err != nil {
		return nil, err
	}
	e := &env{
		cfg:       cfg,
		repos:     repos,
		connector: targetdrv.NewConnector(&kube.Options{UserAgent: "modelops/" + version}),
		metrics:   m,
	}
	if closeDB != nil {
		e.closers = append(e.closers, closeDB)
	}

	ctx := cmd.Context()
	if cfg.Lock.URL != "" {
		r, closeRedis, err := lock.NewRedisFromURL(ctx, cfg.Lock.URL, &lock.RedisOptions{TTL: cfg.Lock.TTL})
		if err != nil {
			e.close()
			return nil, err
		}
		e.locker = r
		e.closers = append(e.closers, closeRedis)
	} else {
		e.locker = lock.NewLocal()
	}
	quietKlog()

	if err := e.upsertTargets(ctx); err != nil {
		e.close()
		return nil, err
	}
	envCache[key] = e
	return e, nil
}

func (e *env) upsertTargets(ctx context.Context) error {
	u := e.targetUseCase()
	for _, t := range e.cfg.ToTargets() {
		out, err := u.Upsert(ctx, &target.CreateInput{ProjectID: t.ProjectID, Name: t.Name, Driver: t.Driver, Settings: t.Settings})
		if err != nil {
			return fmt.Errorf("target %s: %w", t.Name, err)
		}
		if out.Created || out.Updated {
			logging.FromContext(ctx).Info(ctx, "CMD:target/upsert", "target", t.Name, "created", out.Created, "updated", out.Updated)
		}
	}
	return nil
}

func (e *env) close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	e.closers = nil
	return errors.Join(errs...)
}

// shutdown writes the metrics textfile, if requested, and releases every
// cached env.
func shutdown(ctx context.Context, metricsFile string) error {
	envCacheMu.Lock()
	defer envCacheMu.Unlock()
	var errs []error
	for key, e := range envCache {
		if metricsFile != "" {
			if err := e.metrics.WriteTextfile(metricsFile); err != nil {
				errs = append(errs, err)
			} else {
				logging.FromContext(ctx).Debug(ctx, "CMD:metrics/written", "path", metricsFile)
			}
		}
		errs = append(errs, e.close())
		delete(envCache, key)
	}
	return errors.Join(errs...)
}

// commandContext bounds a command with timeout.
func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func (e *env) targetUseCase() *target.UseCase {
	return &target.UseCase{Repos: &target.Repos{Target: e.repos.Target}, Credentials: e.connector}
}

func (e *env) workloadUseCase() *workload.UseCase {
	return &workload.UseCase{Repos: &workload.Repos{Workload: e.repos.Workload}}
}

func (e *env) artifactUseCase() *artifact.UseCase {
	return &artifact.UseCase{Repos: &artifact.Repos{Workload: e.repos.Workload, Artifact: e.repos.Artifact}}
}

func (e *env) routingUseCase() *routing.UseCase {
	return &routing.UseCase{
		Repos:     &routing.Repos{Target: e.repos.Target, Workload: e.repos.Workload, Instance: e.repos.Instance},
		Connector: e.connector,
		Locker:    e.locker,
		Manifest:  e.cfg.ManifestOptions(),
		Metrics:   e.metrics,
	}
}

func (e *env) deploymentUseCase() *deployment.UseCase {
	return &deployment.UseCase{
		Repos: &deployment.Repos{
			Target:   e.repos.Target,
			Workload: e.repos.Workload,
			Instance: e.repos.Instance,
			Artifact: e.repos.Artifact,
		},
		Connector: e.connector,
		Manifest:  e.cfg.ManifestOptions(),
		Router:    e.routingUseCase(),
		Metrics:   e.metrics,
	}
}

func (e *env) reconcileUseCase() *reconcile.UseCase {
	return &reconcile.UseCase{
		Repos: &reconcile.Repos{
			Target:   e.repos.Target,
			Workload: e.repos.Workload,
			Instance: e.repos.Instance,
			Artifact: e.repos.Artifact,
		},
		Connector: e.connector,
		Metrics:   e.metrics,
	}
}

// resolveTarget finds a target of the project by name, falling back to ID.
func (e *env) resolveTarget(ctx context.Context, ref string) (*model.ClusterTarget, error) {
	u := e.targetUseCase()
	t, err := u.FindByName(ctx, e.cfg.Project, ref)
	if err == nil {
		return t, nil
	}
	out, gerr := u.Get(ctx, &target.GetInput{TargetID: ref})
	if gerr != nil || out.Target.ProjectID != e.cfg.Project {
		return nil, err
	}
	return out.Target, nil
}

// resolveWorkload finds a workload of the project by name, falling back to ID.
func (e *env) resolveWorkload(ctx context.Context, ref string) (*model.Workload, error) {
	u := e.workloadUseCase()
	out, err := u.Get(ctx, &workload.GetInput{ProjectID: e.cfg.Project, Name: ref})
	if err == nil {
		return out.Workload, nil
	}
	byID, gerr := u.Get(ctx, &workload.GetInput{WorkloadID: ref})
	if gerr != nil || byID.Workload.ProjectID != e.cfg.Project {
		return nil, err
	}
	return byID.Workload, nil
}
