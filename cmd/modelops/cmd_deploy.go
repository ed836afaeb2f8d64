package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kompox/modelops/config/modelopscfg"
	"github.com/kompox/modelops/usecase/deployment"
	"github.com/spf13/cobra"
)

func newCmdDeploy() *cobra.Command {
	var (
		file    string
		dryRun  bool
		timeout time.Duration
	)
	c := &cobra.Command{Use: "deploy", Short: "Create or update a service instance from a deploy document", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) (err error) {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		doc, err := modelopscfg.LoadDeploy(file)
		if err != nil {
			return err
		}
		spec := doc.ToSpec(e.cfg.Project)
		ctx, cancel := commandContext(cmd, timeout)
		defer cancel()
		ctx, cleanup := withCmdRunLogger(ctx, "deploy", spec.WorkloadName)
		defer func() { cleanup(err) }()
		out, err := e.deploymentUseCase().Deploy(ctx, &deployment.DeployInput{Spec: spec, DryRun: dryRun})
		if err != nil {
			return err
		}
		if dryRun {
			_, err = fmt.Fprint(cmd.OutOrStdout(), out.Rendered)
			return err
		}
		return printJSON(cmd, out)
	}}
	c.Flags().StringVarP(&file, "file", "f", "", "Deploy document (YAML), or '-' for stdin")
	c.Flags().BoolVar(&dryRun, "dry-run", false, "Print the manifests without touching clusters or the registry")
	c.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Deadline for applying to every target")
	_ = c.MarkFlagRequired("file")
	return c
}

func newCmdSwitchModel() *cobra.Command {
	var timeout time.Duration
	c := &cobra.Command{Use: "switch-model <instance-id> <artifact-id>", Short: "Serve another model artifact from a service instance", Args: cobra.ExactArgs(2), RunE: func(cmd *cobra.Command, args []string) (err error) {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, timeout)
		defer cancel()
		ctx, cleanup := withCmdRunLogger(ctx, "switch-model", args[0])
		defer func() { cleanup(err) }()
		out, err := e.deploymentUseCase().SwitchModel(ctx, &deployment.SwitchModelInput{InstanceID: args[0], ArtifactID: args[1]})
		if err != nil {
			return err
		}
		return printJSON(cmd, out.Instance)
	}}
	c.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Deadline for patching every target")
	return c
}

func newCmdRemove() *cobra.Command {
	var timeout time.Duration
	c := &cobra.Command{Use: "remove <instance-id>", Short: "Delete a service instance from every target and drop its route", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) (err error) {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, timeout)
		defer cancel()
		ctx, cleanup := withCmdRunLogger(ctx, "remove", args[0])
		defer func() { cleanup(err) }()
		out, err := e.deploymentUseCase().Remove(ctx, &deployment.RemoveInput{InstanceID: args[0]})
		if err != nil {
			return err
		}
		return printJSON(cmd, out)
	}}
	c.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Deadline for deleting from every target")
	return c
}

func newCmdInstance() *cobra.Command {
	cmd := groupCmd("instance", "Inspect service instances")
	cmd.AddCommand(newCmdInstanceList(), newCmdInstanceLogs())
	return cmd
}

func newCmdInstanceList() *cobra.Command {
	var level string
	c := &cobra.Command{Use: "list <workload>", Short: "List service instances of a workload", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, defaultTimeout)
		defer cancel()
		w, err := e.resolveWorkload(ctx, args[0])
		if err != nil {
			return err
		}
		out, err := e.deploymentUseCase().List(ctx, &deployment.ListInput{WorkloadID: w.ID, Level: level})
		if err != nil {
			return err
		}
		return printJSON(cmd, out.Instances)
	}}
	c.Flags().StringVar(&level, "level", "", "Service level filter")
	return c
}

func newCmdInstanceLogs() *cobra.Command {
	var (
		targetRef string
		tail      int64
		since     time.Duration
		follow    bool
	)
	c := &cobra.Command{Use: "logs <instance-id>", Short: "Print worker logs of a service instance", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if !follow {
			var cancel context.CancelFunc
			ctx, cancel = commandContext(cmd, 2*time.Minute)
			defer cancel()
		}
		in := &deployment.LogsInput{InstanceID: args[0], TailLines: tail, Since: since, Follow: follow, Out: cmd.OutOrStdout()}
		if targetRef != "" {
			t, err := e.resolveTarget(ctx, targetRef)
			if err != nil {
				return err
			}
			in.TargetID = t.ID
		}
		_, err = e.deploymentUseCase().Logs(ctx, in)
		return err
	}}
	c.Flags().StringVar(&targetRef, "target", "", "Read one cluster target (required with --follow on several targets)")
	c.Flags().Int64Var(&tail, "tail", 100, "Lines per pod from the end of the log (0 for all)")
	c.Flags().DurationVar(&since, "since", 0, "Only entries newer than this duration")
	c.Flags().BoolVarP(&follow, "follow", "f", false, "Stream new entries until interrupted")
	return c
}
