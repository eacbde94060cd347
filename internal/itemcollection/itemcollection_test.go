package itemcollection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetItemValue_Roundtrip(t *testing.T) {
	ic := New()
	require.NoError(t, ic.SetItemValue(" TxtSubject ", "hello"))
	assert.Equal(t, "hello", ic.GetItemValueString("txtsubject"))
	assert.True(t, ic.HasItem("TXTSUBJECT"))
}

func TestSetItemValue_SingletonBecomesListOfOne(t *testing.T) {
	ic := New()
	require.NoError(t, ic.SetItemValue("count", 3))
	vals := ic.GetItemValue("count")
	require.Len(t, vals, 1)
	assert.Equal(t, int64(3), vals[0].I64)
}

func TestSetItemValue_NilRemoves(t *testing.T) {
	ic := New()
	require.NoError(t, ic.SetItemValue("a", "x"))
	require.NoError(t, ic.SetItemValue("a", nil))
	assert.False(t, ic.HasItem("a"))
	assert.Empty(t, ic.GetItemValue("a"))
}

func TestSetItemValue_TimeNormalizedToInstant(t *testing.T) {
	ic := New()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	require.NoError(t, ic.SetItemValue("when", now))
	got := ic.GetItemValueDate("when")
	assert.True(t, got.Equal(now))
	assert.Equal(t, time.UTC, got.Location())
}

func TestSetItemValue_RejectsUnsupportedType(t *testing.T) {
	ic := New()
	err := ic.SetItemValue("bad", struct{ X int }{1})
	require.Error(t, err)
}

func TestClone_IsDeepAndIndependent(t *testing.T) {
	ic := New()
	require.NoError(t, ic.SetItemValue("list", []any{"a", "b"}))
	clone := ic.Clone()
	assert.True(t, ic.Equal(clone))

	vals := clone.GetItemValue("list")
	vals[0] = VString("mutated")
	require.NoError(t, clone.SetItemValue("list", []any{vals[0].Str, "b"}))

	original := ic.GetItemValue("list")
	assert.Equal(t, "a", original[0].Str)
}

func TestDeprecatedAliasesMirrorWrite(t *testing.T) {
	ic := New()
	require.NoError(t, ic.SetItemValue("$taskid", 100))
	assert.Equal(t, 100, ic.GetItemValueInt("$processid"))

	require.NoError(t, ic.SetItemValue("$processid", 200))
	assert.Equal(t, 200, ic.GetItemValueInt("$taskid"))

	require.NoError(t, ic.SetItemValue("$owner", []any{"joe"}))
	assert.Equal(t, []string{"joe"}, ic.GetItemValueStringList("namowner"))
}

func TestFileAttachment_RoundtripAndDerivedItems(t *testing.T) {
	ic := New()
	ic.AddFileData(FileData{Name: "a.txt", ContentType: "text/plain", Content: []byte("hi")})
	ic.AddFileData(FileData{Name: "b.txt", ContentType: "text/plain", Content: []byte("bye")})

	fd, ok := ic.GetFileData("a.txt")
	require.True(t, ok)
	assert.Equal(t, "hi", string(fd.Content))

	assert.Equal(t, 2, ic.GetItemValueInt(ItemFileCount))
	assert.Equal(t, []string{"a.txt", "b.txt"}, ic.GetItemValueStringList(ItemFileNames))

	ic.RemoveFileData("a.txt")
	assert.Equal(t, 1, ic.GetItemValueInt(ItemFileCount))
	_, ok = ic.GetFileData("a.txt")
	assert.False(t, ok)
}

func TestFileAttachment_NoDuplicateNames(t *testing.T) {
	ic := New()
	ic.AddFileData(FileData{Name: "dup.txt", Content: []byte("v1")})
	ic.AddFileData(FileData{Name: "dup.txt", Content: []byte("v2")})
	assert.Equal(t, []string{"dup.txt"}, ic.FileNames())
	fd, _ := ic.GetFileData("dup.txt")
	assert.Equal(t, "v2", string(fd.Content))
}

func TestMerge_OverwritesSameNamedItems(t *testing.T) {
	a := New()
	require.NoError(t, a.SetItemValue("x", 1))
	require.NoError(t, a.SetItemValue("y", 2))

	b := New()
	require.NoError(t, b.SetItemValue("x", 99))

	a.Merge(b)
	assert.Equal(t, 99, a.GetItemValueInt("x"))
	assert.Equal(t, 2, a.GetItemValueInt("y"))
}
