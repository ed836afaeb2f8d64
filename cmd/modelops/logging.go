package main

import (
	"context"
	"flag"
	"io"
	"os"
	"time"

	"github.com/kompox/modelops/config/modelopscfg"
	"github.com/kompox/modelops/internal/logging"
	"github.com/kompox/modelops/internal/naming"
	"github.com/spf13/cobra"
	klog "k8s.io/klog/v2"
)

// logSink is the log destination opened by setupLogging.
var logSink *logging.Sink

// setupLogging installs the context logger. Flags win over environment
// variables, which win over the logging section of the configuration.
func setupLogging(c *cobra.Command, _ []string) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	var lc modelopscfg.Logging
	if cfg != nil {
		lc = cfg.Logging
	}
	format := setting(c, "log-format", "MODELOPS_LOG_FORMAT", lc.Format)
	level, err := logging.ParseLevel(setting(c, "log-level", "MODELOPS_LOG_LEVEL", lc.Level))
	if err != nil {
		return err
	}
	output := setting(c, "log-output", "MODELOPS_LOG_OUTPUT", "")
	if output == "" && lc.Dir == "" {
		output = "-"
	}
	sink, err := logging.OpenSink(logging.SinkOptions{
		Target: output,
		Dir:    lc.Dir,
		Keep:   time.Duration(lc.RetentionDays) * 24 * time.Hour,
	}, time.Now())
	if err != nil {
		return err
	}
	l, err := logging.NewWithWriter(format, level, sink)
	if err != nil {
		sink.Close()
		return err
	}
	closeLogSink()
	logSink = sink
	runID, err := naming.NewCompactID()
	if err != nil {
		return err
	}
	l = l.With("runId", runID)
	if sink.Path != "" {
		l.Info(c.Context(), "CMD:start", "args", os.Args[1:])
	}
	c.SetContext(logging.WithLogger(c.Context(), l))
	return nil
}

func closeLogSink() {
	if logSink != nil {
		logSink.Close()
		logSink = nil
	}
}

// setting resolves an option from an explicitly set flag, then the
// environment, then fallback, then the flag default.
func setting(c *cobra.Command, name, env, fallback string) string {
	f := findFlag(c, name)
	if f != nil && f.Changed {
		return f.Value.String()
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	if fallback != "" {
		return fallback
	}
	if f != nil {
		return f.Value.String()
	}
	return ""
}

// withCmdRunLogger opens a CMD:<operation> span tagged with resourceID.
//
//	ctx, cleanup := withCmdRunLogger(ctx, "deploy", workloadName)
//	defer func() { cleanup(err) }()
func withCmdRunLogger(ctx context.Context, operation, resourceID string) (context.Context, func(err error)) {
	return logging.Span(ctx, "CMD:"+operation, "resourceId", resourceID)
}

// quietKlog limits klog noise from client-go so command output stays readable.
func quietKlog() {
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	_ = fs.Set("stderrthreshold", "FATAL")
	_ = fs.Set("v", "0")
	klog.LogToStderr(false)
	klog.SetOutput(io.Discard)
}
