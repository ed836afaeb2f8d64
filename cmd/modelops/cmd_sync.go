package main

import (
	"time"

	"github.com/kompox/modelops/usecase/reconcile"
	"github.com/spf13/cobra"
)

func newCmdSync() *cobra.Command {
	var (
		targetRef string
		workloads []string
		timeout   time.Duration
	)
	c := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the registry with the worker Deployments found on cluster targets",
		Long: `Reconcile the registry with the worker Deployments found on cluster targets.

Discovered workloads and instances are registered or refreshed; instance rows
not seen during the pass are pruned. Without --workload, workload rows not
seen are pruned as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			e, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, timeout)
			defer cancel()
			ctx, cleanup := withCmdRunLogger(ctx, "sync", e.cfg.Project)
			defer func() { cleanup(err) }()
			in := &reconcile.SyncInput{ProjectID: e.cfg.Project, Workloads: workloads}
			if targetRef != "" {
				t, err := e.resolveTarget(ctx, targetRef)
				if err != nil {
					return err
				}
				in.TargetID = t.ID
			}
			out, err := e.reconcileUseCase().Sync(ctx, in)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	c.Flags().StringVar(&targetRef, "target", "", "Limit discovery to one cluster target")
	c.Flags().StringSliceVar(&workloads, "workload", nil, "Limit the pass to workload names (repeatable)")
	c.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Deadline for the pass")
	return c
}
