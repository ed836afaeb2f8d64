package kube

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// LogOptions selects the log window of worker pods.
type LogOptions struct {
	// TailLines limits output to the last lines of each pod; zero means all.
	TailLines int64
	// Since limits output to recent entries; zero means all.
	Since time.Duration
	// Follow keeps streaming until ctx is done or every stream ends.
	Follow bool
}

// WorkerLogs writes the worker container logs of the pods matching selector
// in namespace to w. Each line is prefixed with "[<pod>] ". Pods are read in
// name order, or concurrently when following.
func (c *Client) WorkerLogs(ctx context.Context, namespace, selector string, opts *LogOptions, w io.Writer) error {
	var o LogOptions
	if opts != nil {
		o = *opts
	}
	list, err := c.Clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return fmt.Errorf("list pods %s: %w", namespace, err)
	}
	pods := list.Items
	sort.Slice(pods, func(i, j int) bool { return pods[i].Name < pods[j].Name })

	podOpts := &corev1.PodLogOptions{Container: WorkerContainerName, Follow: o.Follow}
	if o.TailLines > 0 {
		podOpts.TailLines = &o.TailLines
	}
	if o.Since > 0 {
		s := int64(o.Since.Seconds())
		podOpts.SinceSeconds = &s
	}
	out := &lineWriter{w: w}
	if !o.Follow {
		for _, p := range pods {
			if err := c.copyPodLog(ctx, namespace, p.Name, podOpts, out); err != nil {
				return err
			}
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range pods {
		g.Go(func() error { return c.copyPodLog(gctx, namespace, p.Name, podOpts, out) })
	}
	return g.Wait()
}

func (c *Client) copyPodLog(ctx context.Context, namespace, pod string, opts *corev1.PodLogOptions, out *lineWriter) error {
	stream, err := c.Clientset.CoreV1().Pods(namespace).GetLogs(pod, opts).Stream(ctx)
	if err != nil {
		return fmt.Errorf("log stream %s/%s: %w", namespace, pod, err)
	}
	defer stream.Close()
	sc := bufio.NewScanner(stream)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if err := out.line(pod, sc.Bytes()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read logs %s/%s: %w", namespace, pod, err)
	}
	return nil
}

// lineWriter serializes prefixed lines from concurrent streams.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lineWriter) line(pod string, b []byte) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, err := fmt.Fprintf(lw.w, "[%s] %s\n", pod, b)
	return err
}
