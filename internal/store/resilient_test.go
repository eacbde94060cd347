package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/logging"
	"github.com/Dev-ALPM/imixs-workflow/internal/resilience"
)

type flakyStore struct {
	failSaveTimes int
	saves         int
	inner         DocumentStore
}

func (f *flakyStore) Save(ctx context.Context, doc *itemcollection.ItemCollection) (*itemcollection.ItemCollection, error) {
	f.saves++
	if f.saves <= f.failSaveTimes {
		return nil, errors.New("transient save failure")
	}
	return f.inner.Save(ctx, doc)
}

func (f *flakyStore) Load(ctx context.Context, id string) (*itemcollection.ItemCollection, bool, error) {
	return f.inner.Load(ctx, id)
}

func (f *flakyStore) Find(ctx context.Context, query string, pageSize, pageIndex int, sortBy string, reverse bool) ([]*itemcollection.ItemCollection, error) {
	return f.inner.Find(ctx, query, pageSize, pageIndex, sortBy, reverse)
}

func (f *flakyStore) GetDocumentsByType(ctx context.Context, docType string) ([]*itemcollection.ItemCollection, error) {
	return f.inner.GetDocumentsByType(ctx, docType)
}

func testResilientConfig() resilience.Config {
	cfg := resilience.DefaultConfig("resilient-test")
	cfg.MaxRetries = 3
	return cfg
}

func TestResilientStore_Save_RetriesThenSucceeds(t *testing.T) {
	mem := NewMemoryStore()
	inner := &flakyStore{failSaveTimes: 2, inner: mem}
	s := NewResilientStore(inner, testResilientConfig(), logging.New("test", "error", "text"))

	doc := itemcollection.NewFrom(map[string]any{itemcollection.ItemUniqueID: "wi-1"})
	saved, err := s.Save(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, "wi-1", saved.GetItemValueString(itemcollection.ItemUniqueID))
	assert.Equal(t, 3, inner.saves)
}

func TestResilientStore_Load_DelegatesToInner(t *testing.T) {
	mem := NewMemoryStore()
	_, err := mem.Save(context.Background(), itemcollection.NewFrom(map[string]any{
		itemcollection.ItemUniqueID: "wi-2",
	}))
	require.NoError(t, err)

	s := NewResilientStore(mem, testResilientConfig(), logging.New("test", "error", "text"))

	doc, ok, err := s.Load(context.Background(), "wi-2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "wi-2", doc.GetItemValueString(itemcollection.ItemUniqueID))
}

func TestResilientStore_Save_ExhaustsRetriesAndReturnsError(t *testing.T) {
	mem := NewMemoryStore()
	inner := &flakyStore{failSaveTimes: 100, inner: mem}
	s := NewResilientStore(inner, testResilientConfig(), logging.New("test", "error", "text"))

	_, err := s.Save(context.Background(), itemcollection.New())
	require.Error(t, err)
}

var _ DocumentStore = (*flakyStore)(nil)
