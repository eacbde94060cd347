// Package builtin provides the engine's stock chain plugins: history
// logging and a mail-send plugin (ACL/owner recomputation is done by the
// kernel through the access package, not by a plugin). Each is a
// small value type implementing plugin.Plugin; there is no shared base
// class, per the interface-plus-vtable design note.
package builtin

import (
	"context"
	"strconv"
	"time"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/plugin"
)

// HistoryPlugin appends a $snapshot.history entry on every Run, capturing
// the triggering event and timestamp. It never fails.
type HistoryPlugin struct{}

// NewHistoryPlugin returns a ready-to-use HistoryPlugin.
func NewHistoryPlugin() *HistoryPlugin { return &HistoryPlugin{} }

func (p *HistoryPlugin) Name() string { return "history" }

func (p *HistoryPlugin) Init(ctx context.Context, wctx plugin.WorkflowContext) error { return nil }

func (p *HistoryPlugin) Run(ctx context.Context, w *itemcollection.ItemCollection, ev plugin.EventView) (*itemcollection.ItemCollection, error) {
	entries := w.GetItemValueStringList(itemcollection.ItemSnapshotHist)
	line := time.Now().UTC().Format(time.RFC3339) + " event:" + strconv.Itoa(ev.EventID) + " " + ev.Name
	entries = plugin.MergeFieldList(entries, line)
	if err := w.SetItemValue(itemcollection.ItemSnapshotHist, toAny(entries)); err != nil {
		return w, err
	}
	return w, nil
}

func (p *HistoryPlugin) Close(ctx context.Context, rollback bool) error { return nil }

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

var _ plugin.Plugin = (*HistoryPlugin)(nil)
