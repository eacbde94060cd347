// Package kernel implements the Workflow Kernel: the state-transition
// interpreter that advances a workitem one process step at a time. It
// orchestrates the model graph walk, the plugin chain, the rule engine,
// and the access/owner resolver without owning any of them.
package kernel

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dev-ALPM/imixs-workflow/internal/access"
	"github.com/Dev-ALPM/imixs-workflow/internal/apperrors"
	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/logging"
	"github.com/Dev-ALPM/imixs-workflow/internal/model"
	"github.com/Dev-ALPM/imixs-workflow/internal/plugin"
	"github.com/Dev-ALPM/imixs-workflow/internal/resilience"
	"github.com/Dev-ALPM/imixs-workflow/internal/rules"
	"github.com/Dev-ALPM/imixs-workflow/internal/store"
	"github.com/Dev-ALPM/imixs-workflow/internal/textsub"
)

// maxFollowUps bounds the follow-up loop independent of the per-call
// visited-set cycle detector, as a last-resort backstop.
const maxFollowUps = 1000

// Kernel ties the model manager, plugin registry, rule engine, and document
// store together to execute process steps. It carries no per-step state;
// every field is a shared, effectively-immutable collaborator passed as a
// context parameter rather than as an ambient singleton.
type Kernel struct {
	Models    *model.Manager
	Registry  *plugin.Registry
	Rules     *rules.Engine
	Store     store.DocumentStore
	Observers []Observer

	// Guard, when set, routes every Retryable plugin's Run through the
	// resilience package's circuit breaker + backoff.
	Guard plugin.RunGuard

	// Logger, when set, receives close-phase plugin errors that closeAll
	// would otherwise drop; nil is valid and simply discards them.
	Logger *logging.Logger
}

// New wires a Kernel from its collaborators. ruleEngine and docs may be nil
// (Rules is nil-checked before use; Store is only handed to plugins);
// registry must not be nil.
func New(models *model.Manager, registry *plugin.Registry, ruleEngine *rules.Engine, docs store.DocumentStore) *Kernel {
	return &Kernel{Models: models, Registry: registry, Rules: ruleEngine, Store: docs}
}

// WithGuard attaches a resilience.Guard so Retryable plugins' Run calls are
// driven through it. Returns the receiver for chaining.
func (k *Kernel) WithGuard(guard *resilience.Guard[*itemcollection.ItemCollection]) *Kernel {
	k.Guard = guard
	return k
}

// WithLogger attaches a Logger that receives close-phase plugin errors.
// Returns the receiver for chaining.
func (k *Kernel) WithLogger(logger *logging.Logger) *Kernel {
	k.Logger = logger
	return k
}

// Subscribe registers an Observer to receive BEFORE_PROCESS/AFTER_PROCESS
// notifications on every subsequent step.
func (k *Kernel) Subscribe(o Observer) {
	k.Observers = append(k.Observers, o)
}

// Result is the outcome of one Process call: the main workitem plus any
// sibling workitems spawned at split gateways, returned explicitly rather
// than accumulated on a stateful accessor.
type Result struct {
	Workitem *itemcollection.ItemCollection
	Splits   []*itemcollection.ItemCollection
}

// runState threads the bookkeeping a single Process call accumulates across
// its (possibly looping) follow-up chain: every plugin chain that ran, for
// the final global Close, and the (taskID,eventID) pairs already visited,
// for the follow-up cycle detector.
type runState struct {
	chains  []*plugin.Chain
	visited map[[2]int]bool
	splits  []*itemcollection.ItemCollection
}

// Process executes exactly one process step (plus any chained follow-up
// events) on w. caller identifies the acting principal for the ACL check
// and the $participants append.
func (k *Kernel) Process(ctx context.Context, caller string, w *itemcollection.ItemCollection) (Result, error) {
	m, err := k.Models.GetModelByWorkitem(w)
	if err != nil {
		return Result{}, err
	}

	taskID := w.GetItemValueInt(itemcollection.ItemTaskID)
	eventID := w.GetItemValueInt(itemcollection.ItemEventID)

	ev, ok := m.GetEvent(taskID, eventID)
	if !ok {
		return Result{}, apperrors.ModelErrorf("kernel", "UNDEFINED_MODEL_ENTRY", "no event %d on task %d", eventID, taskID)
	}

	if err := checkWriteAccess(w, caller); err != nil {
		return Result{}, err
	}

	if w.GetItemValueString(itemcollection.ItemUniqueID) == "" {
		if err := w.SetItemValue(itemcollection.ItemUniqueID, uuid.NewString()); err != nil {
			return Result{}, apperrors.ProcessingErrorWrap("kernel", "assigning unique id", err)
		}
	}

	rs := &runState{visited: make(map[[2]int]bool)}

	// BEFORE_PROCESS fires once per Process call, not once per follow-up
	// iteration: the follow-up loop re-enters at the plugin chain, not
	// at the access check.
	k.notify(ctx, BeforeProcess, w)

	current := w
	for i := 0; ; i++ {
		if i >= maxFollowUps {
			return Result{}, apperrors.ProcessingError("kernel", "follow-up chain exceeded the hard iteration cap")
		}

		key := [2]int{taskID, eventID}
		if rs.visited[key] {
			k.closeAll(ctx, rs, true)
			return Result{}, apperrors.ModelErrorf("kernel", "CYCLIC_FOLLOWUP", "cyclic follow-up revisits task %d event %d", taskID, eventID)
		}
		rs.visited[key] = true

		next, err := k.runStep(ctx, m, current, ev, caller, rs)
		if err != nil {
			k.closeAll(ctx, rs, true)
			return Result{}, err
		}
		current = next

		if ev.FollowUp == nil {
			break
		}
		taskID = current.GetItemValueInt(itemcollection.ItemTaskID)
		eventID = *ev.FollowUp
		ev, ok = m.GetEvent(taskID, eventID)
		if !ok {
			k.closeAll(ctx, rs, true)
			return Result{}, apperrors.ModelErrorf("kernel", "UNDEFINED_MODEL_ENTRY", "follow-up event %d on task %d does not exist", eventID, taskID)
		}
	}

	k.notify(ctx, AfterProcess, current)
	for _, s := range rs.splits {
		k.notify(ctx, AfterProcess, s)
	}

	k.closeAll(ctx, rs, false)

	return Result{Workitem: current, Splits: rs.splits}, nil
}

// runStep executes a single event: the plugin chain, gateway resolution,
// and the commit of the resulting transition (for the main path and
// every split sibling).
func (k *Kernel) runStep(ctx context.Context, m *model.Model, w *itemcollection.ItemCollection, ev *model.Event, caller string, rs *runState) (*itemcollection.ItemCollection, error) {
	pluginNames := append(append([]string{}, ev.Plugins...), ev.Adapters...)
	plugins, err := k.Registry.Build(pluginNames)
	if err != nil {
		return nil, err
	}

	wctx := plugin.WorkflowContext{Caller: caller, Models: k.Models, Store: k.Store}
	for _, p := range plugins {
		if err := p.Init(ctx, wctx); err != nil {
			return nil, apperrors.PluginError("kernel", "PLUGIN_INIT_FAILED", "plugin "+p.Name()+" failed to init", err)
		}
	}

	var chain *plugin.Chain
	if k.Guard != nil {
		chain = plugin.NewChainWithGuard(plugins, k.Guard)
	} else {
		chain = plugin.NewChain(plugins)
	}
	rs.chains = append(rs.chains, chain)

	pv := pluginView(ev)
	current, err := chain.Run(ctx, w, pv)
	if err != nil {
		return nil, apperrors.PluginError("kernel", "PLUGIN_FAILED", "plugin chain aborted on event "+strconv.Itoa(ev.EventID), err)
	}

	if ev.RuleScript != "" && k.Rules != nil {
		if err := k.Rules.EvaluateScript(ctx, ev.RuleScript, current, engineView(ev)); err != nil {
			return nil, err
		}
	}

	eval := k.condEvaluator(ctx, current, ev)
	result, err := m.ResolveSuccessor(ev.Next, eval)
	if err != nil {
		return nil, err
	}

	for _, siblingTaskID := range result.Siblings {
		sibling := current.Clone()
		if err := sibling.SetItemValue(itemcollection.ItemUniqueID, uuid.NewString()); err != nil {
			return nil, apperrors.ProcessingErrorWrap("kernel", "assigning sibling unique id", err)
		}
		task, ok := m.GetTask(siblingTaskID)
		if !ok {
			return nil, apperrors.ModelErrorf("kernel", "UNDEFINED_MODEL_ENTRY", "split target task %d does not exist", siblingTaskID)
		}
		k.commitTransition(sibling, ev, task, caller)
		rs.splits = append(rs.splits, sibling)
	}

	task, ok := m.GetTask(result.TaskID)
	if !ok {
		return nil, apperrors.ModelErrorf("kernel", "UNDEFINED_MODEL_ENTRY", "successor task %d does not exist", result.TaskID)
	}
	k.commitTransition(current, ev, task, caller)

	return current, nil
}

// commitTransition writes the new $taskid, appends to the $eventid
// history, updates $lasteventdate/$lasteventid/$workflowstatus, and
// triggers the access/owner recompute against the resolved next Task.
func (k *Kernel) commitTransition(w *itemcollection.ItemCollection, ev *model.Event, next *model.Task, caller string) {
	now := time.Now().UTC()

	histIDs := append(eventIDHistory(w), ev.EventID)

	_ = w.SetItemValue(itemcollection.ItemTaskID, next.ID)
	_ = w.SetItemValue(itemcollection.ItemEventID, ev.EventID)
	_ = w.SetItemValue(itemcollection.ItemEventID+".history", toAnyInts(histIDs))
	_ = w.SetItemValue(itemcollection.ItemLastEventID, ev.EventID)
	_ = w.SetItemValue(itemcollection.ItemLastEventDate, now)
	_ = w.SetItemValue(itemcollection.ItemWorkflowState, next.WorkflowState)
	_ = w.SetItemValue(itemcollection.ItemWorkflowGroup, next.WorkflowGroup)

	access.Resolve(w, ev, next, caller, k.adaptText)
}

// condEvaluator binds the rule engine to the model's gateway walk, keeping
// the model package free of a rule-engine dependency per the design note in
// model/walk.go.
func (k *Kernel) condEvaluator(ctx context.Context, w *itemcollection.ItemCollection, ev *model.Event) model.CondEvaluator {
	return func(script string) (bool, error) {
		if k.Rules == nil {
			return false, apperrors.RuleError("kernel", "gateway edge requires a rule engine but none is configured", nil)
		}
		return k.Rules.EvaluateExpression(ctx, script, w, engineView(ev))
	}
}

// adaptText is the default ACL literal-name substitution pipeline: each
// literal is run through the text-substitution directives, and a
// comma in the resolved output is treated as the "may expand to a list"
// case (e.g. a resolved group placeholder).
func (k *Kernel) adaptText(literal string, w *itemcollection.ItemCollection) []string {
	resolved := textsub.Resolve(literal, w, time.Now().UTC())
	var out []string
	for _, part := range strings.Split(resolved, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func pluginView(ev *model.Event) plugin.EventView {
	return plugin.EventView{
		TaskID:       ev.TaskID,
		EventID:      ev.EventID,
		Name:         ev.Name,
		MailSubject:  ev.MailSubject,
		MailBody:     ev.MailBody,
		MailInactive: ev.MailInactive,
		RuleScript:   ev.RuleScript,
	}
}

func engineView(ev *model.Event) rules.EventView {
	return rules.EventView{
		EventID:     ev.EventID,
		Name:        ev.Name,
		MailSubject: ev.MailSubject,
		MailBody:    ev.MailBody,
	}
}

// eventIDHistory reads back the append-only $eventid.history log (distinct
// from the builtin HistoryPlugin's formatted $snapshot.history text log)
// that every process step extends.
func eventIDHistory(w *itemcollection.ItemCollection) []int {
	vals := w.GetItemValue(itemcollection.ItemEventID + ".history")
	out := make([]int, 0, len(vals))
	for _, v := range vals {
		if v.Kind == itemcollection.KindInt64 {
			out = append(out, int(v.I64))
		}
	}
	return out
}

func toAnyInts(vs []int) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// checkWriteAccess implements the ACL check performed before any plugin
// runs: an empty $writeAccess list means no restriction is in force yet
// (e.g. a brand-new workitem); otherwise caller must appear in it.
func checkWriteAccess(w *itemcollection.ItemCollection, caller string) error {
	writers := w.GetItemValueStringList(itemcollection.ItemWriteAccess)
	if len(writers) == 0 || caller == "" {
		return nil
	}
	for _, name := range writers {
		if name == caller {
			return nil
		}
	}
	return apperrors.AccessDenied("kernel", "caller "+caller+" is not in $writeAccess")
}

// notify delivers a lifecycle event to every subscribed Observer, in
// subscription order, synchronously in the caller's goroutine.
func (k *Kernel) notify(ctx context.Context, event LifecycleEvent, w *itemcollection.ItemCollection) {
	observers(k.Observers).notify(ctx, event, w)
}

// closeAll invokes Close(rollback) on every plugin chain built during this
// Process call, in reverse chain order (and, within each chain, reverse
// plugin order). Close-phase errors are logged, not returned: the error path
// that triggers rollback=true already has its own error to return, and the
// success path's close errors must not mask a step that otherwise succeeded.
func (k *Kernel) closeAll(ctx context.Context, rs *runState, rollback bool) {
	for i := len(rs.chains) - 1; i >= 0; i-- {
		for _, err := range rs.chains[i].Close(ctx, rollback) {
			if k.Logger != nil {
				k.Logger.WithContext(ctx).WithField("rollback", rollback).WithError(err).Error("plugin close failed")
			}
		}
	}
}
