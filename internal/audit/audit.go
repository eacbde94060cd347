// Package audit implements the audit-log Observer: a pure subscriber of
// kernel lifecycle events that writes one structured log line per
// BEFORE_PROCESS/AFTER_PROCESS, independent of the Prometheus metrics
// observer: subscribers observe without mutating order.
package audit

import (
	"context"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/kernel"
	"github.com/Dev-ALPM/imixs-workflow/internal/logging"
)

// Observer logs every lifecycle event through logger, at debug level so it
// stays out of production logs unless explicitly enabled.
type Observer struct {
	logger *logging.Logger
}

// NewObserver wires an Observer against logger.
func NewObserver(logger *logging.Logger) *Observer {
	return &Observer{logger: logger}
}

// Notify implements kernel.Observer.
func (o *Observer) Notify(ctx context.Context, event kernel.LifecycleEvent, w *itemcollection.ItemCollection) {
	fields := map[string]any{
		"uniqueid": w.GetItemValueString(itemcollection.ItemUniqueID),
		"taskid":   w.GetItemValueInt(itemcollection.ItemTaskID),
		"eventid":  w.GetItemValueInt(itemcollection.ItemEventID),
	}
	switch event {
	case kernel.BeforeProcess:
		o.logger.WithContext(ctx).WithFields(fields).Debug("BEFORE_PROCESS")
	case kernel.AfterProcess:
		o.logger.WithContext(ctx).WithFields(fields).Debug("AFTER_PROCESS")
	}
}

var _ kernel.Observer = (*Observer)(nil)
