package adminhttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/logging"
	"github.com/Dev-ALPM/imixs-workflow/internal/scheduler"
	"github.com/Dev-ALPM/imixs-workflow/internal/store"
)

func TestHandleHealth_ReturnsOK(t *testing.T) {
	docs := store.NewMemoryStore()
	sched := scheduler.New(docs, logging.New("admin-test", "error", "text"))
	t.Cleanup(func() { sched.Shutdown(context.Background()) })
	srv := NewServer(docs, sched)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleStartScheduler_UnknownID_Returns404Equivalent(t *testing.T) {
	docs := store.NewMemoryStore()
	sched := scheduler.New(docs, logging.New("admin-test", "error", "text"))
	t.Cleanup(func() { sched.Shutdown(context.Background()) })
	srv := NewServer(docs, sched)

	req := httptest.NewRequest(http.MethodPost, "/schedulers/missing/start", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError && rec.Code != http.StatusNotFound {
		t.Fatalf("expected an error status, got %d", rec.Code)
	}
}

func TestHandleStartAndStopScheduler(t *testing.T) {
	docs := store.NewMemoryStore()
	sched := scheduler.New(docs, logging.New("admin-test", "error", "text"))
	t.Cleanup(func() { sched.Shutdown(context.Background()) })
	sched.Register("demo", scheduler.ImplementationFunc(func(ctx context.Context, config *itemcollection.ItemCollection) (*itemcollection.ItemCollection, error) {
		return config, nil
	}))

	cfg := itemcollection.New()
	_ = cfg.SetItemValue(itemcollection.ItemUniqueID, "sched-x")
	_ = cfg.SetItemValue("$type", scheduler.DocType)
	_ = cfg.SetItemValue(scheduler.ItemDefinition, "minute=*\nhour=*")
	_ = cfg.SetItemValue(scheduler.ItemClass, "demo")
	saved, err := docs.Save(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	srv := NewServer(docs, sched)
	id := saved.GetItemValueString(itemcollection.ItemUniqueID)

	req := httptest.NewRequest(http.MethodPost, "/schedulers/"+id+"/start", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := sched.FindTimer(id); !ok {
		t.Fatal("expected a live timer after starting via HTTP")
	}

	req = httptest.NewRequest(http.MethodPost, "/schedulers/"+id+"/stop", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := sched.FindTimer(id); ok {
		t.Fatal("expected no live timer after stopping via HTTP")
	}
}
