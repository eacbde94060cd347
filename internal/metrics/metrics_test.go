package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/kernel"
)

func counterValue(t *testing.T, c *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	var m io_prometheus_client.Metric
	if err := c.WithLabelValues(labels...).Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestObserver_CountsBeforeAndAfterProcess(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver(reg)

	w := itemcollection.NewFrom(map[string]any{
		itemcollection.ItemWorkflowGroup: "Ticket",
		itemcollection.ItemUniqueID:      "w-1",
	})

	obs.Notify(context.Background(), kernel.BeforeProcess, w)
	obs.Notify(context.Background(), kernel.AfterProcess, w)

	if v := counterValue(t, obs.stepsStarted, "Ticket"); v != 1 {
		t.Fatalf("expected 1 started step, got %v", v)
	}
	if v := counterValue(t, obs.stepsFinished, "Ticket"); v != 1 {
		t.Fatalf("expected 1 finished step, got %v", v)
	}
}

func TestObserver_SplitSiblingsCountTowardFinished(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver(reg)

	main := itemcollection.NewFrom(map[string]any{
		itemcollection.ItemWorkflowGroup: "Ticket",
		itemcollection.ItemUniqueID:      "w-1",
	})
	sibling := itemcollection.NewFrom(map[string]any{
		itemcollection.ItemWorkflowGroup: "Ticket",
		itemcollection.ItemUniqueID:      "w-2",
	})

	obs.Notify(context.Background(), kernel.BeforeProcess, main)
	obs.Notify(context.Background(), kernel.AfterProcess, main)
	obs.Notify(context.Background(), kernel.AfterProcess, sibling)

	if v := counterValue(t, obs.stepsFinished, "Ticket"); v != 2 {
		t.Fatalf("expected 2 finished steps (main + sibling), got %v", v)
	}
}
