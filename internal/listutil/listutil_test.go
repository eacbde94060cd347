package listutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge_PreservesFirstOccurrenceAndDropsEmpty(t *testing.T) {
	got := Merge([]string{"alice", "", "bob"}, "bob", "carol", "")
	assert.Equal(t, []string{"alice", "bob", "carol"}, got)
}

func TestMerge_NilBase(t *testing.T) {
	got := Merge(nil, "alice", "alice", "bob")
	assert.Equal(t, []string{"alice", "bob"}, got)
}

func TestUnique_DeduplicatesPreservingOrder(t *testing.T) {
	got := Unique([]string{"a", "b", "a", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}
