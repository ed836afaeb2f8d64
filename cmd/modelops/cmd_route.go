package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/usecase/routing"
	"github.com/spf13/cobra"
)

func newCmdRoute() *cobra.Command {
	cmd := groupCmd("route", "Inspect and change traffic weights of a workload level")
	cmd.AddCommand(newCmdRouteGet(), newCmdRouteSet(), newCmdRouteRemove())
	return cmd
}

// parseRoutes parses "instance=weight" arguments.
func parseRoutes(args []string) (model.RouteSet, error) {
	routes := make(model.RouteSet, 0, len(args))
	for _, a := range args {
		id, w, ok := strings.Cut(a, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("route %q: want <instance-id>=<weight>", a)
		}
		weight, err := strconv.Atoi(w)
		if err != nil {
			return nil, fmt.Errorf("route %q: weight: %w", a, err)
		}
		routes = append(routes, model.Route{InstanceID: id, Weight: weight})
	}
	return routes, nil
}

func newCmdRouteGet() *cobra.Command {
	var targetRef string
	c := &cobra.Command{Use: "get <workload> <level>", Short: "Show the routes of a workload level", Args: cobra.ExactArgs(2), RunE: func(cmd *cobra.Command, args []string) error {
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
		in := &routing.GetInput{WorkloadID: w.ID, Level: args[1]}
		if targetRef != "" {
			t, err := e.resolveTarget(ctx, targetRef)
			if err != nil {
				return err
			}
			in.TargetID = t.ID
		}
		out, err := e.routingUseCase().Get(ctx, in)
		if err != nil {
			return err
		}
		return printJSON(cmd, out)
	}}
	c.Flags().StringVar(&targetRef, "target", "", "Cluster target to read (default: first target)")
	return c
}

func newCmdRouteSet() *cobra.Command {
	var timeout time.Duration
	c := &cobra.Command{
		Use:     "set <workload> <level> <instance-id>=<weight>...",
		Short:   "Replace the routes of a workload level on every target",
		Example: "  modelops route set iris production 3k9x0a1b2c=90 3k9x0d4e5f=10",
		Args:    cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			e, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			routes, err := parseRoutes(args[2:])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, timeout)
			defer cancel()
			ctx, cleanup := withCmdRunLogger(ctx, "route.set", args[0])
			defer func() { cleanup(err) }()
			w, err := e.resolveWorkload(ctx, args[0])
			if err != nil {
				return err
			}
			out, err := e.routingUseCase().Set(ctx, &routing.SetInput{WorkloadID: w.ID, Level: args[1], Routes: routes})
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	c.Flags().DurationVar(&timeout, "timeout", time.Minute, "Deadline for updating every target")
	return c
}

func newCmdRouteRemove() *cobra.Command {
	var timeout time.Duration
	c := &cobra.Command{Use: "remove <workload> <level> <instance-id>", Short: "Drop one route and renormalize the rest", Args: cobra.ExactArgs(3), RunE: func(cmd *cobra.Command, args []string) (err error) {
		e, err := buildEnv(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, timeout)
		defer cancel()
		ctx, cleanup := withCmdRunLogger(ctx, "route.remove", args[2])
		defer func() { cleanup(err) }()
		w, err := e.resolveWorkload(ctx, args[0])
		if err != nil {
			return err
		}
		out, err := e.routingUseCase().Remove(ctx, &routing.RemoveInput{WorkloadID: w.ID, Level: args[1], InstanceID: args[2]})
		if err != nil {
			return err
		}
		return printJSON(cmd, out)
	}}
	c.Flags().DurationVar(&timeout, "timeout", time.Minute, "Deadline for updating every target")
	return c
}
