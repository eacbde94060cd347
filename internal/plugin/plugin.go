// Package plugin implements the ordered, stateful side-effect chain the
// kernel drives on every process step (the builtin subpackage supplies the
// mail and history units), each a value implementing the Plugin interface
// rather than a subclass of some abstract base.
package plugin

import (
	"context"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/listutil"
	"github.com/Dev-ALPM/imixs-workflow/internal/model"
	"github.com/Dev-ALPM/imixs-workflow/internal/store"
)

// WorkflowContext is the handle a Plugin receives at Init: caller identity
// plus its model/document-store collaborators.
type WorkflowContext struct {
	Caller string
	Models *model.Manager
	Store  store.DocumentStore
}

// EventView is the narrow read-only view of the triggering Event a plugin
// needs; it mirrors rules.EventView so plugins don't import the model
// package's full Event type.
type EventView struct {
	TaskID       int
	EventID      int
	Name         string
	MailSubject  string
	MailBody     string
	MailInactive bool
	RuleScript   string
}

// Plugin is the capability set every chain unit implements: the kernel
// builds a fresh instance for every step, inits it, runs it once, and
// closes it once in reverse order. Per design note, shared helpers (merge-field-list, unique-list)
// live as free functions in this package, not as base-class methods.
type Plugin interface {
	Name() string
	Init(ctx context.Context, wctx WorkflowContext) error
	Run(ctx context.Context, w *itemcollection.ItemCollection, ev EventView) (*itemcollection.ItemCollection, error)
	Close(ctx context.Context, rollback bool) error
}

// Retryable is implemented by a Plugin whose Run should be driven through
// the resilience package's circuit breaker and backoff rather than
// failing the chain on the first transient error.
type Retryable interface {
	Plugin
	Retryable() bool
}

// MergeFieldList appends values, preserving first occurrence and dropping
// empty strings.
func MergeFieldList(base []string, add ...string) []string {
	return listutil.Merge(base, add...)
}

// UniqueList de-duplicates vs preserving first occurrence.
func UniqueList(vs []string) []string {
	return listutil.Unique(vs)
}
