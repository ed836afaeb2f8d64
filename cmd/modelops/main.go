package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kompox/modelops/internal/logging"
	"github.com/spf13/cobra"

	_ "github.com/kompox/modelops/adapters/drivers/target/aks"
	_ "github.com/kompox/modelops/adapters/drivers/target/kubeconfig"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "modelops",
		Short:   "ModelOps CLI",
		Long:    "ModelOps CLI deploys model-serving workers to Kubernetes cluster targets and routes traffic between them.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.String("db-url", envOr("MODELOPS_DB_URL", "sqlite:./modelops.db"), "Registry database URL (env MODELOPS_DB_URL) (sqlite:/path/to.db | memory:[name])")
	pf.String("config", envOr("MODELOPS_CONFIG", "modelops.yml"), "Configuration file (env MODELOPS_CONFIG)")
	pf.String("log-format", "", "Log format (human|text|json) (env MODELOPS_LOG_FORMAT)")
	pf.String("log-level", "", "Log level (debug|info|warn|error) (env MODELOPS_LOG_LEVEL)")
	pf.String("log-output", "", "Log destination: file path, '-' for stderr or 'none' (default: new file under logging.dir, else stderr)")
	pf.String("metrics-file", "", "Write Prometheus metrics in text format to this file on exit")

	cmd.PersistentPreRunE = setupLogging

	cmd.AddCommand(newCmdVersion())
	cmd.AddCommand(newCmdTarget())
	cmd.AddCommand(newCmdWorkload())
	cmd.AddCommand(newCmdArtifact())
	cmd.AddCommand(newCmdDeploy())
	cmd.AddCommand(newCmdSwitchModel())
	cmd.AddCommand(newCmdRemove())
	cmd.AddCommand(newCmdInstance())
	cmd.AddCommand(newCmdRoute())
	cmd.AddCommand(newCmdSync())
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := newRootCmd()
	root.SetContext(ctx)
	executed, err := root.ExecuteC()
	if executed != nil {
		ctx = executed.Context()
	}
	if serr := shutdown(ctx, flagValue(root, "metrics-file")); serr != nil {
		logging.FromContext(ctx).Warnf(ctx, "Shutdown: %s", serr)
	}
	if err != nil {
		logging.FromContext(ctx).Errorf(ctx, "Failed: %s", err)
		closeLogSink()
		stop()
		os.Exit(1)
	}
	closeLogSink()
}
