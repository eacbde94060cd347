package audit

import (
	"context"
	"testing"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/kernel"
	"github.com/Dev-ALPM/imixs-workflow/internal/logging"
)

func TestObserver_NotifyDoesNotPanicOnEitherEvent(t *testing.T) {
	o := NewObserver(logging.New("audit-test", "debug", "text"))
	w := itemcollection.NewFrom(map[string]any{
		itemcollection.ItemUniqueID: "w-1",
		itemcollection.ItemTaskID:   100,
		itemcollection.ItemEventID:  10,
	})

	o.Notify(context.Background(), kernel.BeforeProcess, w)
	o.Notify(context.Background(), kernel.AfterProcess, w)
}
