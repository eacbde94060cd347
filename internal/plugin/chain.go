package plugin

import (
	"context"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/resilience"
)

// RunGuard is the narrow resilience.Guard surface Chain needs, satisfied by
// *resilience.Guard[*itemcollection.ItemCollection].
type RunGuard interface {
	Run(ctx context.Context, fn func(context.Context) (*itemcollection.ItemCollection, error)) (*itemcollection.ItemCollection, error)
}

var _ RunGuard = (*resilience.Guard[*itemcollection.ItemCollection])(nil)

// Chain runs an ordered list of Plugins for one kernel step, implementing
// the rollback discipline: on a PluginException, no started plugin's
// close(rollback=false) is ever called, and close(rollback=true) is
// called on every plugin that ran,
// in reverse order.
type Chain struct {
	plugins []Plugin
	guard   RunGuard // optional; wraps Retryable plugins' Run calls
	ran     []Plugin // prefix of plugins whose Run was invoked, in run order
}

// NewChain wraps an ordered plugin list for one step.
func NewChain(plugins []Plugin) *Chain {
	return &Chain{plugins: plugins}
}

// NewChainWithGuard wraps an ordered plugin list, routing any Retryable
// plugin's Run through guard.
func NewChainWithGuard(plugins []Plugin, guard RunGuard) *Chain {
	return &Chain{plugins: plugins, guard: guard}
}

// Run executes every plugin's Run in registration order, threading the
// workitem through each. It stops at the first error and returns it; c.ran
// records every plugin whose Run was invoked for this step, including the
// one that failed — the failing plugin itself still gets a rollback
// Close, but plugins never reached are excluded.
func (c *Chain) Run(ctx context.Context, w *itemcollection.ItemCollection, ev EventView) (*itemcollection.ItemCollection, error) {
	current := w
	for _, p := range c.plugins {
		c.ran = append(c.ran, p)
		next, err := c.runOne(ctx, p, current, ev)
		if err != nil {
			return current, err
		}
		current = next
	}
	return current, nil
}

// runOne dispatches a single plugin's Run, routing it through the guard
// when the plugin opts in via Retryable and a guard is configured.
func (c *Chain) runOne(ctx context.Context, p Plugin, w *itemcollection.ItemCollection, ev EventView) (*itemcollection.ItemCollection, error) {
	if c.guard == nil {
		return p.Run(ctx, w, ev)
	}
	if r, ok := p.(Retryable); !ok || !r.Retryable() {
		return p.Run(ctx, w, ev)
	}
	return c.guard.Run(ctx, func(ctx context.Context) (*itemcollection.ItemCollection, error) {
		return p.Run(ctx, w, ev)
	})
}

// Close invokes Close(rollback) on every plugin that ran, in reverse
// order. Close-phase errors are collected but never abort the remaining
// plugins' Close calls: close-phase failures are logged-only.
func (c *Chain) Close(ctx context.Context, rollback bool) []error {
	var errs []error
	for i := len(c.ran) - 1; i >= 0; i-- {
		if err := c.ran[i].Close(ctx, rollback); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
