package kernel

import (
	"context"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
)

// LifecycleEvent distinguishes the two kernel-published hook points.
type LifecycleEvent int

const (
	BeforeProcess LifecycleEvent = iota
	AfterProcess
)

// Observer is notified synchronously, in the kernel's own goroutine, of
// every lifecycle event a process step publishes. Subscribers (metrics,
// audit, a text-substitution pre-pass) observe without being able to
// reorder or veto the step: delivery happens synchronously in the
// kernel's own goroutine, before the call returns.
type Observer interface {
	Notify(ctx context.Context, event LifecycleEvent, w *itemcollection.ItemCollection)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx context.Context, event LifecycleEvent, w *itemcollection.ItemCollection)

func (f ObserverFunc) Notify(ctx context.Context, event LifecycleEvent, w *itemcollection.ItemCollection) {
	f(ctx, event, w)
}

// observers is an ordered, append-only list of Observer the kernel notifies
// on every step; it is not safe for concurrent registration and step
// execution. Register every observer during init, before the kernel
// starts processing.
type observers []Observer

func (os observers) notify(ctx context.Context, event LifecycleEvent, w *itemcollection.ItemCollection) {
	for _, o := range os {
		o.Notify(ctx, event, w)
	}
}
