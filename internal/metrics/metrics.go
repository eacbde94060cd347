// Package metrics implements a pure observer of kernel lifecycle events:
// it counts process steps, per-task-group transitions, and step latency,
// driven entirely by BEFORE_PROCESS / AFTER_PROCESS — it never mutates
// the workitem or influences the kernel's
// control flow.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/kernel"
)

// Observer implements kernel.Observer, emitting Prometheus counters and a
// histogram of process-step duration.
type Observer struct {
	stepsStarted   *prometheus.CounterVec
	stepsFinished  *prometheus.CounterVec
	stepDuration   *prometheus.HistogramVec

	mu      sync.Mutex
	started map[string]time.Time // $uniqueid -> BEFORE_PROCESS timestamp
}

// NewObserver registers its collectors on reg and returns the Observer.
func NewObserver(reg prometheus.Registerer) *Observer {
	o := &Observer{
		stepsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workflow",
			Name:      "kernel_steps_started_total",
			Help:      "Number of BEFORE_PROCESS lifecycle events observed.",
		}, []string{"workflow_group"}),
		stepsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workflow",
			Name:      "kernel_steps_finished_total",
			Help:      "Number of AFTER_PROCESS lifecycle events observed, labeled by the resulting task's workflow group.",
		}, []string{"workflow_group"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "workflow",
			Name:      "kernel_step_duration_seconds",
			Help:      "Wall-clock duration of one kernel process step, from BEFORE_PROCESS to AFTER_PROCESS.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"workflow_group"}),
		started: make(map[string]time.Time),
	}
	reg.MustRegister(o.stepsStarted, o.stepsFinished, o.stepDuration)
	return o
}

// Notify implements kernel.Observer.
func (o *Observer) Notify(ctx context.Context, event kernel.LifecycleEvent, w *itemcollection.ItemCollection) {
	group := w.GetItemValueString(itemcollection.ItemWorkflowGroup)
	id := w.GetItemValueString(itemcollection.ItemUniqueID)

	switch event {
	case kernel.BeforeProcess:
		o.stepsStarted.WithLabelValues(group).Inc()
		if id != "" {
			o.mu.Lock()
			o.started[id] = time.Now()
			o.mu.Unlock()
		}
	case kernel.AfterProcess:
		o.stepsFinished.WithLabelValues(group).Inc()
		if id == "" {
			return
		}
		o.mu.Lock()
		start, ok := o.started[id]
		if ok {
			delete(o.started, id)
		}
		o.mu.Unlock()
		if ok {
			o.stepDuration.WithLabelValues(group).Observe(time.Since(start).Seconds())
		}
	}
}

var _ kernel.Observer = (*Observer)(nil)
