// Package metrics holds the Prometheus collectors recorded by modelops
// operations. A nil *Metrics records nothing.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "modelops"

var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// Object apply actions.
const (
	ActionCreated = "created"
	ActionPatched = "patched"
	ActionDeleted = "deleted"
	ActionSkipped = "skipped"
)

// Reconcile row actions.
const (
	RowInserted  = "inserted"
	RowRefreshed = "refreshed"
	RowPruned    = "pruned"
)

// Route update outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Metrics groups the collectors. Create it with New.
type Metrics struct {
	Registry *prometheus.Registry

	objectsApplied    *prometheus.CounterVec
	reconcileRows     *prometheus.CounterVec
	routeUpdates      *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. A nil reg gets a
// fresh registry. Collectors already registered on reg are reused.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{Registry: reg}
	m.objectsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cluster_objects_applied_total",
		Help:      "Cluster objects written, by kind and action",
	}, []string{"kind", "action"})
	m.reconcileRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_rows_total",
		Help:      "Registry rows touched by reconciliation, by kind and action",
	}, []string{"kind", "action"})
	m.routeUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_updates_total",
		Help:      "Traffic rule updates, by operation and outcome",
	}, []string{"op", "outcome"})
	m.operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Latency of modelops operations",
		Buckets:   durationBuckets,
	}, []string{"op"})

	var err error
	if m.objectsApplied, err = registerCounter(reg, m.objectsApplied); err != nil {
		return nil, err
	}
	if m.reconcileRows, err = registerCounter(reg, m.reconcileRows); err != nil {
		return nil, err
	}
	if m.routeUpdates, err = registerCounter(reg, m.routeUpdates); err != nil {
		return nil, err
	}
	if err := reg.Register(m.operationDuration); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}
		m.operationDuration = existing
	}
	return m, nil
}

func registerCounter(reg *prometheus.Registry, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		return existing, nil
	}
	return c, nil
}

// ObjectApplied counts one cluster object write.
func (m *Metrics) ObjectApplied(kind, action string) {
	if m == nil {
		return
	}
	m.objectsApplied.WithLabelValues(kind, action).Inc()
}

// ReconcileRows adds n registry rows for kind/action.
func (m *Metrics) ReconcileRows(kind, action string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reconcileRows.WithLabelValues(kind, action).Add(float64(n))
}

// RouteUpdate counts one traffic rule update attempt.
func (m *Metrics) RouteUpdate(op, outcome string) {
	if m == nil {
		return
	}
	m.routeUpdates.WithLabelValues(op, outcome).Inc()
}

// ObserveSince records the duration of op started at start.
func (m *Metrics) ObserveSince(op string, start time.Time) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes all metrics in text exposition format to path, for
// pickup by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
