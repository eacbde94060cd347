package builtin

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/plugin"
)

func TestHistoryPlugin_Run_AppendsEntry(t *testing.T) {
	p := NewHistoryPlugin()
	w := itemcollection.New()
	ev := plugin.EventView{EventID: 10, Name: "submit"}

	out, err := p.Run(context.Background(), w, ev)
	require.NoError(t, err)

	entries := out.GetItemValueStringList(itemcollection.ItemSnapshotHist)
	require.Len(t, entries, 1)
	assert.True(t, strings.Contains(entries[0], "event:10"))
	assert.True(t, strings.Contains(entries[0], "submit"))
}

func TestHistoryPlugin_Run_PreservesPriorEntries(t *testing.T) {
	p := NewHistoryPlugin()
	w := itemcollection.NewFrom(map[string]any{
		itemcollection.ItemSnapshotHist: []any{"2020-01-01T00:00:00Z event:1 create"},
	})
	ev := plugin.EventView{EventID: 20, Name: "approve"}

	out, err := p.Run(context.Background(), w, ev)
	require.NoError(t, err)

	entries := out.GetItemValueStringList(itemcollection.ItemSnapshotHist)
	require.Len(t, entries, 2)
	assert.Equal(t, "2020-01-01T00:00:00Z event:1 create", entries[0])
	assert.True(t, strings.Contains(entries[1], "event:20"))
}

func TestHistoryPlugin_Close_NeverFails(t *testing.T) {
	p := NewHistoryPlugin()
	assert.NoError(t, p.Close(context.Background(), true))
	assert.NoError(t, p.Close(context.Background(), false))
}
