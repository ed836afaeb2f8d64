package main

import (
	"fmt"
	"os"

	"github.com/kompox/modelops/internal/kubeconfig"
	"github.com/kompox/modelops/usecase/target"
	"github.com/spf13/cobra"
	"k8s.io/client-go/tools/clientcmd"
)

func newCmdTarget() *cobra.Command {
	cmd := groupCmd("target", "Manage cluster targets")
	cmd.AddCommand(
		newCmdTargetList(),
		newCmdTargetGet(),
		newCmdTargetCreate(),
		newCmdTargetRotate(),
		newCmdTargetDelete(),
		newCmdTargetKubeconfig(),
	)
	return cmd
}

func newCmdTargetList() *cobra.Command {
	return &cobra.Command{Use: "list", Short: "List cluster targets of the project", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, defaultTimeout)
		defer cancel()
		out, err := e.targetUseCase().List(ctx, &target.ListInput{ProjectID: e.cfg.Project})
		if err != nil {
			return err
		}
		return printJSON(cmd, out.Targets)
	}}
}

func newCmdTargetGet() *cobra.Command {
	return &cobra.Command{Use: "get <name>", Short: "Get a cluster target", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, defaultTimeout)
		defer cancel()
		t, err := e.resolveTarget(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, t)
	}}
}

func newCmdTargetCreate() *cobra.Command {
	var (
		driver   string
		settings map[string]string
	)
	c := &cobra.Command{Use: "create <name>", Short: "Register a cluster target", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) (err error) {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, defaultTimeout)
		defer cancel()
		ctx, cleanup := withCmdRunLogger(ctx, "target.create", args[0])
		defer func() { cleanup(err) }()
		out, err := e.targetUseCase().Create(ctx, &target.CreateInput{ProjectID: e.cfg.Project, Name: args[0], Driver: driver, Settings: settings})
		if err != nil {
			return err
		}
		return printJSON(cmd, out.Target)
	}}
	c.Flags().StringVar(&driver, "driver", "kubeconfig", "Credential driver (kubeconfig|aks)")
	c.Flags().StringToStringVarP(&settings, "setting", "s", nil, "Driver setting KEY=VALUE (repeatable)")
	return c
}

func newCmdTargetRotate() *cobra.Command {
	var settings map[string]string
	c := &cobra.Command{Use: "rotate <name>", Short: "Replace the credential settings of a cluster target", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) (err error) {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, defaultTimeout)
		defer cancel()
		ctx, cleanup := withCmdRunLogger(ctx, "target.rotate", args[0])
		defer func() { cleanup(err) }()
		t, err := e.resolveTarget(ctx, args[0])
		if err != nil {
			return err
		}
		out, err := e.targetUseCase().RotateCredentials(ctx, &target.RotateCredentialsInput{TargetID: t.ID, Settings: settings})
		if err != nil {
			return err
		}
		return printJSON(cmd, out.Target)
	}}
	c.Flags().StringToStringVarP(&settings, "setting", "s", nil, "Driver setting KEY=VALUE (repeatable)")
	_ = c.MarkFlagRequired("setting")
	return c
}

func newCmdTargetDelete() *cobra.Command {
	return &cobra.Command{Use: "delete <name>", Short: "Deregister a cluster target", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) (err error) {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, defaultTimeout)
		defer cancel()
		ctx, cleanup := withCmdRunLogger(ctx, "target.delete", args[0])
		defer func() { cleanup(err) }()
		t, err := e.resolveTarget(ctx, args[0])
		if err != nil {
			return err
		}
		if _, err := e.targetUseCase().Delete(ctx, &target.DeleteInput{TargetID: t.ID}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", t.Name)
		return nil
	}}
}

func newCmdTargetKubeconfig() *cobra.Command {
	var (
		format     string
		merge      bool
		path       string
		force      bool
		setCurrent bool
	)
	c := &cobra.Command{Use: "kubeconfig <name>", Short: "Print or merge the kubeconfig of a cluster target", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, defaultTimeout)
		defer cancel()
		t, err := e.resolveTarget(ctx, args[0])
		if err != nil {
			return err
		}
		out, err := e.targetUseCase().Kubeconfig(ctx, &target.KubeconfigInput{TargetID: t.ID})
		if err != nil {
			return err
		}
		if !merge {
			return kubeconfig.Print(cmd.OutOrStdout(), out.Config, format)
		}
		if path == "" {
			path = clientcmd.NewDefaultPathOptions().GetDefaultFilename()
		}
		merged, name, err := kubeconfig.Merge(out.Config, path, force, setCurrent)
		if err != nil {
			return err
		}
		data, err := kubeconfig.Bytes(merged)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "merged context %s into %s\n", name, path)
		return nil
	}}
	c.Flags().StringVarP(&format, "output", "o", "yaml", "Output format (yaml|json)")
	c.Flags().BoolVar(&merge, "merge", false, "Merge into a kubeconfig file instead of printing")
	c.Flags().StringVar(&path, "kubeconfig", "", "Kubeconfig file to merge into (default: $KUBECONFIG or ~/.kube/config)")
	c.Flags().BoolVar(&force, "force", false, "Replace entries of the same name when merging")
	c.Flags().BoolVar(&setCurrent, "set-current", false, "Make the merged context current")
	return c
}
