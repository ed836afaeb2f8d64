package main

import (
	"fmt"

	"github.com/kompox/modelops/usecase/artifact"
	"github.com/kompox/modelops/usecase/workload"
	"github.com/spf13/cobra"
)

func newCmdWorkload() *cobra.Command {
	cmd := groupCmd("workload", "Manage workloads")
	cmd.AddCommand(newCmdWorkloadList(), newCmdWorkloadGet(), newCmdWorkloadCreate(), newCmdWorkloadDelete())
	return cmd
}

func newCmdWorkloadList() *cobra.Command {
	return &cobra.Command{Use: "list", Short: "List workloads of the project", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, defaultTimeout)
		defer cancel()
		out, err := e.workloadUseCase().List(ctx, &workload.ListInput{ProjectID: e.cfg.Project})
		if err != nil {
			return err
		}
		return printJSON(cmd, out.Workloads)
	}}
}

func newCmdWorkloadGet() *cobra.Command {
	return &cobra.Command{Use: "get <name>", Short: "Get a workload", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
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
		return printJSON(cmd, w)
	}}
}

func newCmdWorkloadCreate() *cobra.Command {
	var description string
	c := &cobra.Command{Use: "create <name>", Short: "Register a workload", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) (err error) {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, defaultTimeout)
		defer cancel()
		ctx, cleanup := withCmdRunLogger(ctx, "workload.create", args[0])
		defer func() { cleanup(err) }()
		out, err := e.workloadUseCase().Create(ctx, &workload.CreateInput{ProjectID: e.cfg.Project, Name: args[0], Description: description})
		if err != nil {
			return err
		}
		return printJSON(cmd, out.Workload)
	}}
	c.Flags().StringVar(&description, "description", "", "Workload description")
	return c
}

func newCmdWorkloadDelete() *cobra.Command {
	return &cobra.Command{Use: "delete <name>", Short: "Delete a workload without service instances", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) (err error) {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, defaultTimeout)
		defer cancel()
		ctx, cleanup := withCmdRunLogger(ctx, "workload.delete", args[0])
		defer func() { cleanup(err) }()
		w, err := e.resolveWorkload(ctx, args[0])
		if err != nil {
			return err
		}
		if _, err := e.workloadUseCase().Delete(ctx, &workload.DeleteInput{WorkloadID: w.ID}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", w.Name)
		return nil
	}}
}

func newCmdArtifact() *cobra.Command {
	cmd := groupCmd("artifact", "Manage model artifacts")
	cmd.AddCommand(newCmdArtifactList(), newCmdArtifactGet(), newCmdArtifactCreate(), newCmdArtifactDelete())
	return cmd
}

func newCmdArtifactList() *cobra.Command {
	return &cobra.Command{Use: "list <workload>", Short: "List model artifacts of a workload", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
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
		out, err := e.artifactUseCase().List(ctx, &artifact.ListInput{WorkloadID: w.ID})
		if err != nil {
			return err
		}
		return printJSON(cmd, out.Artifacts)
	}}
}

func newCmdArtifactGet() *cobra.Command {
	return &cobra.Command{Use: "get <id>", Short: "Get a model artifact", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, defaultTimeout)
		defer cancel()
		out, err := e.artifactUseCase().Get(ctx, &artifact.GetInput{ArtifactID: args[0]})
		if err != nil {
			return err
		}
		return printJSON(cmd, out.Artifact)
	}}
}

func newCmdArtifactCreate() *cobra.Command {
	var version, description string
	c := &cobra.Command{Use: "create <workload> <path>", Short: "Register a model artifact", Args: cobra.ExactArgs(2), RunE: func(cmd *cobra.Command, args []string) (err error) {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, defaultTimeout)
		defer cancel()
		ctx, cleanup := withCmdRunLogger(ctx, "artifact.create", args[1])
		defer func() { cleanup(err) }()
		w, err := e.resolveWorkload(ctx, args[0])
		if err != nil {
			return err
		}
		out, err := e.artifactUseCase().Create(ctx, &artifact.CreateInput{WorkloadID: w.ID, Path: args[1], Version: version, Description: description})
		if err != nil {
			return err
		}
		return printJSON(cmd, out.Artifact)
	}}
	c.Flags().StringVar(&version, "version", "", "Model version")
	c.Flags().StringVar(&description, "description", "", "Artifact description")
	return c
}

func newCmdArtifactDelete() *cobra.Command {
	return &cobra.Command{Use: "delete <id>", Short: "Delete a model artifact no instance serves", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) (err error) {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, defaultTimeout)
		defer cancel()
		ctx, cleanup := withCmdRunLogger(ctx, "artifact.delete", args[0])
		defer func() { cleanup(err) }()
		if _, err := e.artifactUseCase().Delete(ctx, &artifact.DeleteInput{ArtifactID: args[0]}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	}}
}
