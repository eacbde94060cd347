// Package rules implements the embedded-script Rule Engine: boolean
// Expression evaluation for conditional gateway edges, and Script evaluation
// that merges a result bag back onto the workitem.
package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/Dev-ALPM/imixs-workflow/internal/apperrors"
	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
)

// DefaultTimeout bounds a single script evaluation when the caller's context
// carries no deadline of its own.
const DefaultTimeout = 5 * time.Second

// Engine evaluates scripts against a (workitem, event) pair using a fresh
// goja runtime per call, giving every execution its own isolated scope.
type Engine struct {
	timeout time.Duration
}

// New returns an Engine using DefaultTimeout when the caller's context has
// no deadline.
func New() *Engine {
	return &Engine{timeout: DefaultTimeout}
}

// WithTimeout overrides the fallback evaluation timeout.
func (e *Engine) WithTimeout(d time.Duration) *Engine {
	return &Engine{timeout: d}
}

// EventView is the narrow read-only view of an Event a script may address.
type EventView struct {
	EventID     int
	Name        string
	MailSubject string
	MailBody    string
}

// EvaluateExpression runs script as a boolean conditional-gateway edge test.
// The legacy shim is applied first so deprecated accessors keep working
// for one major version.
func (e *Engine) EvaluateExpression(ctx context.Context, script string, w *itemcollection.ItemCollection, ev EventView) (bool, error) {
	script = RewriteIfDeprecated(script)

	val, err := e.run(ctx, script, w, ev, nil)
	if err != nil {
		return false, err
	}
	exported := val.Export()
	b, ok := exported.(bool)
	if !ok {
		return false, apperrors.RuleError("rule-engine", fmt.Sprintf("expression did not evaluate to a boolean, got %T", exported), nil)
	}
	return b, nil
}

// EvaluateScript runs script as a mutating Script: the script populates a
// `result` object whose entries are normalized and merged back onto w.
func (e *Engine) EvaluateScript(ctx context.Context, script string, w *itemcollection.ItemCollection, ev EventView) error {
	script = RewriteIfDeprecated(script)

	result := make(map[string]any)
	_, err := e.run(ctx, script, w, ev, result)
	if err != nil {
		return err
	}
	for name, value := range result {
		if err := w.SetItemValue(name, value); err != nil {
			return apperrors.RuleError("rule-engine", fmt.Sprintf("merging result.%s", name), err)
		}
	}
	return nil
}

func (e *Engine) run(ctx context.Context, script string, w *itemcollection.ItemCollection, ev EventView, result map[string]any) (goja.Value, error) {
	rt := goja.New()

	if err := bindWorkitem(rt, w); err != nil {
		return nil, apperrors.RuleError("rule-engine", "bind workitem", err)
	}
	if err := rt.Set("event", map[string]any{
		"id":          ev.EventID,
		"name":        ev.Name,
		"mailSubject": ev.MailSubject,
		"mailBody":    ev.MailBody,
	}); err != nil {
		return nil, apperrors.RuleError("rule-engine", "bind event", err)
	}
	if result != nil {
		if err := rt.Set("result", result); err != nil {
			return nil, apperrors.RuleError("rule-engine", "bind result", err)
		}
	}

	timeout := e.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			timeout = remaining
		}
	}

	stop := make(chan struct{})
	defer close(stop)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	go func() {
		select {
		case <-ctx.Done():
			rt.Interrupt(ctx.Err())
		case <-timer.C:
			rt.Interrupt(fmt.Errorf("rule evaluation timed out after %s", timeout))
		case <-stop:
		}
	}()

	val, err := rt.RunString(script)
	if err != nil {
		return nil, translateRuntimeError(err)
	}
	return val, nil
}

func translateRuntimeError(err error) error {
	switch typed := err.(type) {
	case *goja.InterruptedError:
		return apperrors.RuleError("rule-engine", fmt.Sprintf("interrupted: %v", typed.Value()), err)
	case *goja.Exception:
		return apperrors.RuleError("rule-engine", "script error", typed)
	default:
		return apperrors.RuleError("rule-engine", "compile/eval failed", err)
	}
}

// bindWorkitem exposes canonical typed accessors on the `workitem` global:
// getItemValueString/Integer/Double/Boolean/StringList and hasItem (there is
// no date accessor), mirroring the Java API
// the legacy rewrite shim targets.
func bindWorkitem(rt *goja.Runtime, w *itemcollection.ItemCollection) error {
	obj := rt.NewObject()
	if err := obj.Set("getItemValueString", func(name string) string {
		return w.GetItemValueString(name)
	}); err != nil {
		return err
	}
	if err := obj.Set("getItemValueInteger", func(name string) int {
		return w.GetItemValueInt(name)
	}); err != nil {
		return err
	}
	if err := obj.Set("getItemValueDouble", func(name string) float64 {
		vals := w.GetItemValue(name)
		if len(vals) == 0 {
			return 0
		}
		f, _ := vals[0].Float()
		return f
	}); err != nil {
		return err
	}
	if err := obj.Set("getItemValueBoolean", func(name string) bool {
		return w.GetItemValueBool(name)
	}); err != nil {
		return err
	}
	if err := obj.Set("getItemValueStringList", func(name string) []string {
		return w.GetItemValueStringList(name)
	}); err != nil {
		return err
	}
	if err := obj.Set("hasItem", func(name string) bool {
		return w.HasItem(name)
	}); err != nil {
		return err
	}
	return rt.Set("workitem", obj)
}
