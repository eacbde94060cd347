package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
)

func TestMemoryStore_SaveAssignsUniqueIDAndModified(t *testing.T) {
	s := NewMemoryStore()
	doc := itemcollection.New()

	saved, err := s.Save(context.Background(), doc)
	require.NoError(t, err)

	assert.NotEmpty(t, saved.GetItemValueString(itemcollection.ItemUniqueID))
	assert.False(t, saved.GetItemValueDate(itemcollection.ItemModified).IsZero())
}

func TestMemoryStore_SaveLoad_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	doc := itemcollection.NewFrom(map[string]any{
		itemcollection.ItemUniqueID: "wi-1",
		"$type":                    "workitem",
		"amount":                   int64(42),
	})

	_, err := s.Save(context.Background(), doc)
	require.NoError(t, err)

	loaded, ok, err := s.Load(context.Background(), "wi-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, loaded.GetItemValueInt("amount"))
}

func TestMemoryStore_Load_MissingReturnsNotOK(t *testing.T) {
	s := NewMemoryStore()

	doc, ok, err := s.Load(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, doc)
}

func TestMemoryStore_Save_ClonesSoCallerMutationsDoNotLeak(t *testing.T) {
	s := NewMemoryStore()
	doc := itemcollection.NewFrom(map[string]any{itemcollection.ItemUniqueID: "wi-2"})

	_, err := s.Save(context.Background(), doc)
	require.NoError(t, err)

	_ = doc.SetItemValue("mutated", "yes")

	loaded, ok, err := s.Load(context.Background(), "wi-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, loaded.HasItem("mutated"))
}

func TestMemoryStore_GetDocumentsByType_FiltersByType(t *testing.T) {
	s := NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Save(context.Background(), itemcollection.NewFrom(map[string]any{
			itemcollection.ItemUniqueID: id,
			"$type":                    "workitem",
		}))
		require.NoError(t, err)
	}
	_, err := s.Save(context.Background(), itemcollection.NewFrom(map[string]any{
		itemcollection.ItemUniqueID: "sched-1",
		"$type":                    "scheduler",
	}))
	require.NoError(t, err)

	docs, err := s.GetDocumentsByType(context.Background(), "workitem")
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestMemoryStore_Find_TypeFilterAndPaging(t *testing.T) {
	s := NewMemoryStore()
	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := s.Save(context.Background(), itemcollection.NewFrom(map[string]any{
			itemcollection.ItemUniqueID: id,
			"$type":                    "workitem",
		}))
		require.NoError(t, err)
	}

	page, err := s.Find(context.Background(), "type=workitem", 2, 0, "", false)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page2, err := s.Find(context.Background(), "type=workitem", 2, 1, "", false)
	require.NoError(t, err)
	assert.Len(t, page2, 2)

	page3, err := s.Find(context.Background(), "type=workitem", 2, 2, "", false)
	require.NoError(t, err)
	assert.Empty(t, page3)
}
